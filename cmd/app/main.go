package main

import (
	"FaceScan/internal/config"
	"FaceScan/internal/entity"
	"FaceScan/internal/event"
	"FaceScan/pkg/log"
	"context"
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
)

type Options struct {
	EnvFile   string
	Simulate  bool
	Viewport  string
	AutoStart bool
	Progress  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:           "facescan",
		Short:         "Face liveness scan client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.EnvFile, "env-file", ".env", "Environment file to load before reading configuration")
	cmd.Flags().BoolVar(&opts.Simulate, "simulate", false, "Drive the color sequence with the fixed-step simulator")
	cmd.Flags().StringVar(&opts.Viewport, "viewport", "", "Viewport layout, mobile or desktop (default: from CANVAS_WIDTH)")
	cmd.Flags().BoolVar(&opts.AutoStart, "auto-start", false, "Start the scan immediately instead of waiting for the control API")
	cmd.Flags().BoolVar(&opts.Progress, "progress", false, "Show scan progress in the terminal")

	return cmd
}

func run(ctx context.Context, opts *Options) error {
	if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", opts.EnvFile, err)
	}

	logger := log.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.Simulate {
		cfg.TimelineMode = entity.TimelineModeSimulated
	}

	viewport := entity.ViewportForWidth(int(cfg.Canvas.Width))
	if opts.Viewport != "" {
		vp, ok := entity.ParseViewport(opts.Viewport)
		if !ok {
			return fmt.Errorf("%w: unknown viewport %q", entity.ErrInvalidConfiguration, opts.Viewport)
		}
		viewport = vp
	}

	validator := config.NewValidator()
	overlays, err := config.LoadOverlays(cfg.OverlayPath, validator)
	if err != nil {
		return err
	}

	fiberApp := config.NewFiber(logger)

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithConfig(cfg),
		config.WithValidator(validator),
		config.WithMiddleware(cfg.AccessKey),
		config.WithUtils(),
		config.WithDispatcher(),
		config.WithTransport(),
		config.WithMedia(),
		config.WithDetector(),
		config.WithScanController(viewport, overlays),
	)
	if err != nil {
		return err
	}

	server.RegisterHandler()

	if opts.Progress {
		go watchProgress(ctx, server.Board(), os.Stderr)
	}
	if opts.AutoStart {
		server.Post(event.UserStart{Viewport: viewport})
	}

	logger.WithFields(log.Fields{
		"port":     cfg.Port,
		"viewport": viewport.String(),
		"mode":     cfg.TimelineMode.String(),
	}).Info("Scanner started successfully")

	err = server.Run(ctx)
	logger.Info("Shutting down scanner...")
	return err
}
