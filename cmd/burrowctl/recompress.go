package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aalhour/burrowdb"
)

func newRecompressCmd(c *cli) *cobra.Command {
	var (
		algorithm string
		stores    []string
	)
	cmd := &cobra.Command{
		Use:   "recompress <db> <out>",
		Short: "Rewrite stores with a different compression algorithm",
		Long: `Rewrite a database with the given compression applied to every store, or
only to the stores named with --store. The output is always written in the
current format version, so this also upgrades legacy files.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			alg, err := burrowdb.ParseCompression(algorithm)
			if err != nil {
				return err
			}
			db, data, err := readDatabase(c, args[0])
			if err != nil {
				return err
			}

			if len(stores) == 0 {
				stores = db.Names()
			}
			for _, name := range stores {
				s, ok := db.Store(name)
				if !ok {
					return fmt.Errorf("no store %q in %s", name, args[0])
				}
				if err := s.SetCompression(alg); err != nil {
					return err
				}
			}

			n, err := writeDatabase(c, args[1], db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s (%d stores as %s)\n",
				args[1], humanize.Bytes(uint64(len(data))), humanize.Bytes(uint64(n)),
				len(stores), burrowdb.CompressionName(alg))
			return nil
		},
	}
	cmd.Flags().StringVarP(&algorithm, "compression", "c", "zstd", "Algorithm: none, snappy, deflate, lz4 or zstd")
	cmd.Flags().StringSliceVar(&stores, "store", nil, "Only recompress these stores")
	return cmd
}
