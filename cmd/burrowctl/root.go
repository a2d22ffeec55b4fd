package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/aalhour/burrowdb"
	"github.com/aalhour/burrowdb/internal/logging"
)

// cli holds the state shared by every subcommand.
type cli struct {
	verbose     bool
	optionsPath string

	codec *burrowdb.Codec
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "burrowctl",
		Short: "Inspect and rewrite burrowdb database files",
		Long: `burrowctl reads burrowdb database files, prints their contents and
rewrites them with a different compression or in the current format version.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&c.optionsPath, "options", "", "YAML options file (max_depth, compression, log_level)")

	root.AddCommand(
		newInspectCmd(c),
		newDumpCmd(c),
		newVerifyCmd(c),
		newRecompressCmd(c),
		newImportCmd(c),
		newArchiveCmd(c),
	)
	return root
}

// setup loads options and builds the codec every subcommand uses.
func (c *cli) setup(errOut io.Writer) error {
	opts := burrowdb.DefaultOptions()
	if c.optionsPath != "" {
		var err error
		if opts, err = burrowdb.ReadOptionsFile(c.optionsPath); err != nil {
			return err
		}
	}

	level := logging.LevelWarn
	if l, ok := opts.Logger.(interface{ Level() logging.Level }); ok && !logging.IsNil(opts.Logger) {
		level = l.Level()
	}
	if c.verbose {
		level = logging.LevelDebug
	}
	opts.Logger = logging.NewSlogLogger(newSlogLogger(errOut, logging.SlogLevel(level)))

	c.codec = burrowdb.NewCodec(opts)
	return nil
}

func newSlogLogger(w io.Writer, level slog.Level) *slog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
		w = colorable.NewColorable(f)
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	}))
}

func readDatabase(c *cli, path string) (*burrowdb.Database, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	db, err := c.codec.DecodeDatabase(data)
	if err != nil {
		return nil, data, err
	}
	return db, data, nil
}

func writeDatabase(c *cli, path string, db *burrowdb.Database) (int, error) {
	data, err := c.codec.EncodeDatabase(db)
	if err != nil {
		return 0, err
	}
	return len(data), os.WriteFile(path, data, 0o644)
}
