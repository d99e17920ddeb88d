package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BTreeMap/SiteBot/internal/flow"
)

func newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph <file>",
		Short: "Print a flow as a Mermaid diagram",
		Long:  `Outputs a Mermaid diagram (graph TD) of the tenant's flow. Dangling references are drawn as missing nodes.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := loadTenantFiles(args)
			if err != nil {
				return err
			}
			for _, tf := range files {
				fmt.Fprint(cmd.OutOrStdout(), flow.Mermaid(&tf.Flow))
			}
			return nil
		},
	}
}
