package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aalhour/burrowdb/boltstore"
)

func newArchiveCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Manage databases kept in a Bolt archive file",
	}

	open := func(path string) (*boltstore.Archive, error) {
		return boltstore.Open(path, &boltstore.Options{Codec: c.codec})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <archive>",
		Short: "List stored database names and sizes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(args[0])
			if err != nil {
				return err
			}
			defer a.Close()
			names, err := a.List()
			if err != nil {
				return err
			}
			for _, name := range names {
				raw, err := a.GetRaw(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, humanize.Bytes(uint64(len(raw))))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "put <archive> <name> <db>",
		Short: "Verify a database file and store it under name",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := readDatabase(c, args[2])
			if err != nil {
				return err
			}
			a, err := open(args[0])
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Put(args[1], db)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <archive> <name> <out>",
		Short: "Write the database stored under name to a file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(args[0])
			if err != nil {
				return err
			}
			defer a.Close()
			raw, err := a.GetRaw(args[1])
			if err != nil {
				return err
			}
			return os.WriteFile(args[2], raw, 0o644)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate <archive>",
		Short: "Rewrite legacy databases in the current format version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(args[0])
			if err != nil {
				return err
			}
			defer a.Close()
			migrated, err := a.Migrate()
			for _, name := range migrated {
				fmt.Fprintf(cmd.OutOrStdout(), "migrated %s\n", name)
			}
			return err
		},
	})

	return cmd
}
