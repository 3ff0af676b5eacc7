package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/keypoint-annotator/internal/auth"
	"github.com/ironsheep/keypoint-annotator/internal/catalog"
	"github.com/ironsheep/keypoint-annotator/internal/config"
	"github.com/ironsheep/keypoint-annotator/internal/imaging"
	"github.com/ironsheep/keypoint-annotator/internal/logging"
	"github.com/ironsheep/keypoint-annotator/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "keypoint-annotator - interactive keypoint annotation server")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage: keypoint-annotator [options]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Options:")
	flag.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Environment variables:")
	fmt.Fprintln(out, "  KEYPOINT_HTTP_ADDR=:8050      Listen address")
	fmt.Fprintln(out, "  KEYPOINT_LOG_LEVEL=debug      Enable debug logging")
	fmt.Fprintln(out, "  KEYPOINT_IMAGES_DIR=./images  Annotate the images of a directory")
	fmt.Fprintln(out, "  KEYPOINT_CATALOG_SEED=42      Fix the label subset")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Without --stdio the annotator serves its web interface over HTTP.")
}

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	stdioFlag := flag.Bool("stdio", false, "Serve one local session as JSON-RPC over stdin/stdout")
	configFlag := flag.String("config", "", "Config file (JSON, YAML or TOML)")
	envFlag := flag.String("env", "", "Env file to load (default ./.env when present)")
	flag.Usage = usage
	flag.Parse()

	if *versionFlag {
		fmt.Printf("keypoint-annotator %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	}

	if err := run(*configFlag, *envFlag, *stdioFlag); err != nil {
		fmt.Fprintf(os.Stderr, "keypoint-annotator: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, envFile string, stdio bool) error {
	cfg, err := config.Load(configFile, envFile)
	if err != nil {
		return err
	}

	// Logs go to stderr; stdout carries the protocol in stdio mode.
	logger, err := logging.New(cfg.Log.Level, os.Stderr)
	if err != nil {
		return err
	}
	logger.Info().Str("version", Version).Str("commit", GitCommit).Msg("keypoint annotator starting")

	seed := cfg.Catalog.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	cat, err := catalog.New(cfg.Catalog.Labels, cfg.Catalog.SubsetSize, seed)
	if err != nil {
		return err
	}
	logger.Info().Uint64("seed", seed).Strs("labels", cat.Subset()).Msg("label subset sampled")

	images, err := openImages(cfg.Images)
	if err != nil {
		return err
	}
	logger.Info().Int("images", images.Len()).Str("dir", cfg.Images.Dir).Msg("image set ready")

	opts := server.Options{
		Catalog: cat,
		Images:  images,
		Session: cfg.SessionConfig(),
		Sink:    logging.NewSaveLogger(logger.With().Str("component", "save").Logger()),
		Logger:  logger,
		Version: Version,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if stdio {
		srv, err := server.New(opts)
		if err != nil {
			return err
		}
		if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	accounts := auth.NewRegistry()
	if err := accounts.Seed(cfg.Auth.Accounts()); err != nil {
		return err
	}
	opts.Accounts = accounts

	srv, err := server.New(opts)
	if err != nil {
		return err
	}
	return serveHTTP(ctx, cfg.HTTP.Addr, srv, logger)
}

func openImages(cfg config.ImagesConfig) (*imaging.ImageSet, error) {
	if cfg.Dir != "" {
		return imaging.OpenDir(cfg.Dir, imaging.NewImageCache())
	}
	return imaging.LoadSampleSet(cfg.Sample)
}

func serveHTTP(ctx context.Context, addr string, srv *server.Server, logger zerolog.Logger) error {
	handler, err := srv.Handler()
	if err != nil {
		return err
	}
	hs := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("listening")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("goodbye")
	return nil
}
