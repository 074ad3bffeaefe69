package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dpup/xctsk-viewer/server/internal/cache"
	"github.com/dpup/xctsk-viewer/server/internal/clients/xcontest"
	"github.com/dpup/xctsk-viewer/server/internal/config"
	"github.com/dpup/xctsk-viewer/server/internal/services"
)

type app struct {
	configPath string
	verbose    bool

	cfg     *config.Config
	service *services.ArtifactService
	client  *xcontest.Client
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "xctsk",
		Short:        "Inspect, export and share XCTrack tasks",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log pipeline details to stderr")

	root.AddCommand(
		newShowCommand(a),
		newExportCommand(a),
		newQRCodeCommand(a),
	)
	return root
}

func (a *app) setup() error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.service = services.NewArtifactService(services.NewXCTSKProvider(), &cfg.Render).
		WithLogger(logger.With("component", "artifacts"))
	a.client = xcontest.NewClient(&cfg.XContest, cache.NewCache())
	return nil
}

// load builds artifacts for a task file, "-" for stdin, or a task code
func (a *app) load(ctx context.Context, arg string) (*services.TaskArtifacts, error) {
	var (
		data []byte
		code string
		err  error
	)
	switch {
	case arg == "-":
		data, err = io.ReadAll(os.Stdin)
	case isFile(arg):
		data, err = os.ReadFile(arg)
	default:
		code = arg
		data, err = a.client.FetchTask(ctx, code)
	}
	if err != nil {
		return nil, err
	}
	return a.service.BuildFromDocument(data, code)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// writeOutput writes data to path, or to w when path is empty or "-"
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
