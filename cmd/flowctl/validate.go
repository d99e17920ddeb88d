package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BTreeMap/SiteBot/internal/flow"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|dir>...",
		Short: "Check flows for authoring errors",
		Long:  `Reports duplicate or dangling step ids, missing start or end steps, unreachable steps and cycles for every tenant file given.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := loadTenantFiles(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			failed := 0
			for _, tf := range files {
				err := flow.ValidateDefinition(&tf.Flow)
				var defErr *flow.DefinitionError
				switch {
				case err == nil:
					fmt.Fprintf(out, "%s: ok (%d steps)\n", tf.Website.TenantCode, len(tf.Flow.Steps))
				case errors.As(err, &defErr):
					failed++
					fmt.Fprintf(out, "%s: %d issue(s)\n", tf.Website.TenantCode, len(defErr.Issues))
					for _, is := range defErr.Issues {
						fmt.Fprintf(out, "  - %s\n", is)
					}
				default:
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d flow(s) failed validation", failed, len(files))
			}
			return nil
		},
	}
}
