package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "check file.yaml",
		Short:        "Load a graph description and report its errors",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := load(args[0])
			if err != nil {
				return err
			}
			decls := 0
			for _, p := range res.Packages {
				decls += len(p.Members())
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok: %d packages, %d toplevel declarations\n", len(res.Packages), decls)
			return err
		},
	}
}
