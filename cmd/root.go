package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/job-tracker/internal/config"
	"github.com/MimeLyc/job-tracker/pkg/log"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg     *config.Config
	dataDir string
	driver  string
	closers []func() error
}

// execute runs the CLI with args and releases what the command opened,
// also when it fails.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	root, a := newRootCommand(ctx)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer func() {
		if cerr := a.close(); err == nil {
			err = cerr
		}
	}()

	if err = root.ExecuteContext(ctx); err != nil {
		log.Error("Command failed: %v", err)
	}
	return err
}

func newRootCommand(ctx context.Context) (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:           "job-tracker",
		Short:         "Track job postings and export them as JSON or CSV",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "directory holding the database and exports (overrides DATA_DIR)")
	root.PersistentFlags().StringVar(&a.driver, "store", "", "store driver: sqlite or memory (overrides STORE_DRIVER)")

	root.AddCommand(
		a.serveCommand(ctx),
		a.addCommand(),
		a.listCommand(),
		a.removeCommand(),
		a.exportCommand(),
		a.clearCommand(),
	)
	return root, a
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.New(
		config.WithDataDir(a.dataDir),
		config.WithStoreDriver(a.driver),
	)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := log.ParseLevel(cfg.System.LogLevel)
	if cfg.System.LogFile == "" {
		// stdout is reserved for command output
		log.InitLogger(level)
		log.GetLogger().SetOutput(cmd.ErrOrStderr())
		return nil
	}
	fileLogger, err := log.NewFileLogger(cfg.System.LogFile, level)
	if err != nil {
		return err
	}
	log.SetLogger(fileLogger.Logger)
	a.closers = append(a.closers, func() error {
		log.InitLogger(level)
		log.GetLogger().SetOutput(cmd.ErrOrStderr())
		return fileLogger.Close()
	})
	return nil
}

func (a *app) close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
