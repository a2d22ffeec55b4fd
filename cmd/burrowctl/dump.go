package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aalhour/burrowdb"
	"github.com/aalhour/burrowdb/interop"
)

func newDumpCmd(c *cli) *cobra.Command {
	var (
		store  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "dump <db>",
		Short: "Print every document of every store",
		Long: `Print every document of every store, in order. With --json the output is
one JSON object mapping store names to their documents; kinds without a
JSON counterpart are written as {"$type": ..., "$value": ...} objects.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := readDatabase(c, args[0])
			if err != nil {
				return err
			}
			if store != "" {
				s, ok := db.Store(store)
				if !ok {
					return fmt.Errorf("no store %q in %s", store, args[0])
				}
				db = burrowdb.NewDatabase()
				_ = db.AddStore(s)
			}
			if asJSON {
				return dumpJSON(cmd.OutOrStdout(), db)
			}
			dumpText(cmd.OutOrStdout(), db)
			return nil
		},
	}
	cmd.Flags().StringVar(&store, "store", "", "Only dump this store")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func dumpText(w io.Writer, db *burrowdb.Database) {
	for name, s := range db.All() {
		fmt.Fprintf(w, "store %q (%d documents)\n", name, s.Len())
		for key, doc := range s.All() {
			fmt.Fprintf(w, "  %q: %s\n", key, doc)
		}
	}
}

func dumpJSON(w io.Writer, db *burrowdb.Database) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for name, s := range db.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		key, err := json.Marshal(name)
		if err != nil {
			return err
		}
		body, err := interop.MarshalStoreJSON(s)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err := w.Write(out.Bytes())
	return err
}
