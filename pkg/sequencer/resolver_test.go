package sequencer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDocs(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("content of "+name), 0o644))
	}
}

func docNames(refs []DocumentRef) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	return names
}

func TestDirResolverNumericPrefixOrder(t *testing.T) {
	root := t.TempDir()
	// Lexicographic order would put 10 before 2.
	writeDocs(t, filepath.Join(root, "planner"), "10_appendix.md", "2_detail.md", "1_intro.md")

	refs := DirResolver(root)("planner")
	assert.Equal(t, []string{"1_intro.md", "2_detail.md", "10_appendix.md"}, docNames(refs))
}

func TestDirResolverLexicographicFallback(t *testing.T) {
	root := t.TempDir()
	// "notes.md" has no numeric prefix, so the whole list sorts lexicographically.
	writeDocs(t, filepath.Join(root, "planner"), "10_appendix.md", "2_detail.md", "notes.md")

	refs := DirResolver(root)("planner")
	assert.Equal(t, []string{"10_appendix.md", "2_detail.md", "notes.md"}, docNames(refs))
}

func TestDirResolverMissingDirectoryYieldsEmptyList(t *testing.T) {
	refs := DirResolver(t.TempDir())("no-such-agent")
	assert.Empty(t, refs)
}

func TestDirResolverSkipsSubdirectories(t *testing.T) {
	root := t.TempDir()
	agentDir := filepath.Join(root, "planner")
	writeDocs(t, agentDir, "1_intro.md")
	require.NoError(t, os.MkdirAll(filepath.Join(agentDir, "archive"), 0o755))

	refs := DirResolver(root)("planner")
	assert.Equal(t, []string{"1_intro.md"}, docNames(refs))
}

func TestDirResolverLoadsContent(t *testing.T) {
	root := t.TempDir()
	writeDocs(t, filepath.Join(root, "planner"), "1_intro.md")

	refs := DirResolver(root)("planner")
	require.Len(t, refs, 1)

	content, err := refs[0].Load()
	require.NoError(t, err)
	assert.Equal(t, "content of 1_intro.md", content)
}

func TestDirResolverLoadReportsMissingFile(t *testing.T) {
	root := t.TempDir()
	writeDocs(t, filepath.Join(root, "planner"), "1_intro.md")

	refs := DirResolver(root)("planner")
	require.Len(t, refs, 1)

	// Document removed between resolution and load.
	require.NoError(t, os.Remove(filepath.Join(root, "planner", "1_intro.md")))
	_, err := refs[0].Load()
	assert.Error(t, err)
}
