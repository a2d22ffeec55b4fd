package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aalhour/burrowdb"
	"github.com/aalhour/burrowdb/interop"
)

func newImportCmd(c *cli) *cobra.Command {
	var (
		storeName string
		algorithm string
		replace   bool
	)
	cmd := &cobra.Command{
		Use:   "import <json> <db>",
		Short: "Add a store built from a JSON object of documents",
		Long: `Read a JSON object whose members are documents and add it to <db> as a
new store, creating <db> if it does not exist. The store is named after the
JSON file unless --store is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonPath, dbPath := args[0], args[1]
			if storeName == "" {
				storeName = strings.TrimSuffix(filepath.Base(jsonPath), filepath.Ext(jsonPath))
			}

			input, err := os.ReadFile(jsonPath)
			if err != nil {
				return err
			}
			s, err := interop.StoreFromJSON(storeName, input)
			if err != nil {
				return fmt.Errorf("%s: %w", jsonPath, err)
			}

			db, _, err := readDatabase(c, dbPath)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				db = c.codec.NewDatabase()
			case err != nil:
				return err
			}

			alg := c.codec.Options().Compression
			if algorithm != "" {
				if alg, err = burrowdb.ParseCompression(algorithm); err != nil {
					return err
				}
			}
			if err := s.SetCompression(alg); err != nil {
				return err
			}

			if _, exists := db.Store(storeName); exists {
				if !replace {
					return fmt.Errorf("store %q already exists in %s (use --replace)", storeName, dbPath)
				}
				db.RemoveStore(storeName)
			}
			if err := db.AddStore(s); err != nil {
				return err
			}
			if _, err := writeDatabase(c, dbPath, db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d documents into store %q of %s\n", s.Len(), storeName, dbPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&storeName, "store", "", "Store name (default: JSON file name without extension)")
	cmd.Flags().StringVarP(&algorithm, "compression", "c", "", "Compression for the new store (default: from options)")
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace an existing store with the same name")
	return cmd
}
