package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <db>...",
		Short: "Decode each file completely and report the first error",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				db, _, err := readDatabase(c, path)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL  %s: %v\n", path, err)
					failed++
					continue
				}
				docs := 0
				for _, s := range db.All() {
					docs += s.Len()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "OK    %s: format version %d, %d stores, %d documents\n",
					path, db.SourceVersion(), db.Len(), docs)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed verification", failed, len(args))
			}
			return nil
		},
	}
}
