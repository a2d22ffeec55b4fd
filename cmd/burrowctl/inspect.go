package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aalhour/burrowdb"
)

func newInspectCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <db>",
		Short: "Print the format version and a summary of each store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, data, err := readDatabase(c, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			version := fmt.Sprintf("%d", db.SourceVersion())
			if db.SourceVersion() < burrowdb.CurrentFormatVersion {
				version += " (legacy, upgraded in memory)"
			}
			fmt.Fprintf(out, "file:     %s\n", args[0])
			fmt.Fprintf(out, "size:     %s\n", humanize.Bytes(uint64(len(data))))
			fmt.Fprintf(out, "version:  %s\n", version)
			fmt.Fprintf(out, "stores:   %d\n", db.Len())
			if db.Len() == 0 {
				return nil
			}

			fmt.Fprintln(out)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STORE\tCOMPRESSION\tDOCUMENTS\tRAW SIZE")
			for name, s := range db.All() {
				raw := len(burrowdb.EncodeStore(s))
				fmt.Fprintf(tw, "%q\t%s\t%s\t%s\n",
					name, burrowdb.CompressionName(s.Compression()),
					humanize.Comma(int64(s.Len())), humanize.Bytes(uint64(raw)))
			}
			return tw.Flush()
		},
	}
}
