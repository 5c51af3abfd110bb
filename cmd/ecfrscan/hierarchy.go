package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/ecfrscan/hierarchy"
)

func hierarchyCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "hierarchy",
		Short: "Print the resolved agency tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(flags.logLevel)
			cfg, err := loadConfig(flags, logger)
			if err != nil {
				return err
			}

			h, err := hierarchy.Load(cfg.AgenciesFile())
			if err != nil {
				return fmt.Errorf("load agency hierarchy: %w", err)
			}

			out := cmd.OutOrStdout()
			h.Walk(func(a *hierarchy.Agency, depth int) {
				indent := strings.Repeat("  ", depth)
				fmt.Fprintf(out, "%s%s (%s", indent, a.Name, a.Slug)
				if n := len(a.CFRReferences); n > 0 {
					fmt.Fprintf(out, ", %d refs", n)
				}
				fmt.Fprintln(out, ")")
			})
			if skipped := h.Skipped(); skipped > 0 {
				fmt.Fprintf(out, "\n%d record(s) without a slug were skipped\n", skipped)
			}
			return nil
		},
	}
}
