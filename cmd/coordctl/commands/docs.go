package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"coordinator/pkg/sequencer"
)

var docsAgent string

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List the document cycle an agent role would receive",
	RunE:  runDocs,
}

func init() {
	docsCmd.Flags().StringVar(&docsAgent, "agent", "", "Agent role name")
	_ = docsCmd.MarkFlagRequired("agent")
}

func runDocs(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	refs := sequencer.DirResolver(cfg.Sequencer.DocsRoot)(docsAgent)

	out := cmd.OutOrStdout()
	if len(refs) == 0 {
		fmt.Fprintf(out, "no documents resolved for agent %q\n", docsAgent)
		return nil
	}
	for i, ref := range refs {
		fmt.Fprintf(out, "%2d. %s\n", i+1, ref.Name)
	}
	return nil
}
