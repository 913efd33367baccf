package sequencer

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// DocumentRef identifies one reference document: a display name and a
// content-loading handle. Load runs outside the sequencer's lock and may
// block on I/O.
type DocumentRef struct {
	Name string
	Load func() (string, error)
}

// Resolver maps an agent role name to its ordered document list. A resolver
// reports failure as an empty list, never as an error; the sequencer treats
// an agent with no documents as a permanent no-op.
type Resolver func(agentName string) []DocumentRef

// DirResolver resolves documents from <root>/<agentName>/. Files are ordered
// by their leading numeric prefix ("2_detail.md" before "10_appendix.md");
// if any filename lacks a prefix the whole list falls back to lexicographic
// order. A missing directory yields an empty list.
func DirResolver(root string) Resolver {
	return func(agentName string) []DocumentRef {
		dir := filepath.Join(root, agentName)
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil
		}

		var names []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			names = append(names, entry.Name())
		}
		sortDocumentNames(names)

		refs := make([]DocumentRef, 0, len(names))
		for _, name := range names {
			path := filepath.Join(dir, name)
			refs = append(refs, DocumentRef{
				Name: name,
				Load: func() (string, error) {
					data, err := os.ReadFile(path)
					if err != nil {
						return "", err
					}
					return string(data), nil
				},
			})
		}
		return refs
	}
}

func sortDocumentNames(names []string) {
	prefixes := make(map[string]int, len(names))
	numeric := true
	for _, name := range names {
		n, ok := leadingNumber(name)
		if !ok {
			numeric = false
			break
		}
		prefixes[name] = n
	}

	if !numeric {
		sort.Strings(names)
		return
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := prefixes[names[i]], prefixes[names[j]]
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})
}

func leadingNumber(name string) (int, bool) {
	end := 0
	for end < len(name) && name[end] >= '0' && name[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(name[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
