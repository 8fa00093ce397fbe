package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/facegate/internal/config"
	"github.com/BrandonDHaskell/facegate/internal/devicelink"
	"github.com/BrandonDHaskell/facegate/internal/gate/service"
	"github.com/BrandonDHaskell/facegate/internal/grpcapi"
	"github.com/BrandonDHaskell/facegate/internal/httpapi"
	"github.com/BrandonDHaskell/facegate/internal/logging"
	"github.com/BrandonDHaskell/facegate/internal/recognition"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway",
	Long: `Start the HTTP API (captures, devices, energy) and, unless disabled,
the gRPC health endpoint.  Enrolled faces are loaded once at startup
and can be rebuilt later through POST /v1/encodings/reload.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "HTTP listen address (overrides FACEGATE_HTTP_ADDR)")
	serveCmd.Flags().Bool("skip-enrollment", false, "Start with an empty face store")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.FromEnv()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTPAddr = addr
	}
	skipEnroll, _ := cmd.Flags().GetBool("skip-enrollment")

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	effects, devices, err := commandEffects()
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg, devices, logger)
	if err != nil {
		return err
	}
	defer st.close()

	// Recognition
	extractor := recognition.NewEmbeddingClient(cfg.EmbeddingURL, cfg.EmbeddingTimeout)
	encodings := recognition.NewEncodingStore(extractor, logger.WithField("component", "encodings"))
	enrollment := recognition.NewDirSource(cfg.FacesDir)
	enrollment.Logger = logger.WithField("component", "enrollment")
	if !skipEnroll {
		rep, err := encodings.Load(ctx, enrollment)
		if err != nil {
			logger.WithError(err).Warn("enrollment load failed; starting with no known faces")
		} else {
			logger.WithField("loaded", rep.Loaded).WithField("skipped", rep.Skipped).Info("enrollment loaded")
		}
	}
	matcher := recognition.NewMatcher(encodings, cfg.MatchTolerance)

	// Device link
	link := devicelink.NewClient(devicelink.Config{
		URL:     cfg.DeviceLinkURL,
		Timeout: cfg.DeviceLinkTimeout,
	}, logger.WithField("component", "devicelink"))
	defer link.Close()
	if !link.Connect(ctx) {
		logger.WithField("url", cfg.DeviceLinkURL).Warn("device link not reachable at startup; will retry on first command")
	}

	// Services
	registry := service.NewDeviceRegistry(devices)
	ledger := service.NewUsageLedger(st.usage, registry, nil)
	control := service.NewControlService(link, ledger, effects, logger.WithField("component", "control"))
	access := service.NewAccessService(control, st.records, nil, logger.WithField("component", "access"))

	pruner := service.NewEventPruner(st.usage, service.PrunerConfig{
		RetentionDays: cfg.EventRetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, nil, logger.WithField("component", "pruner"))
	pruner.Start(ctx)
	defer pruner.Stop()

	// gRPC health
	var health *grpcapi.Server
	if cfg.GRPCAddr != "" {
		health = grpcapi.NewServer(grpcapi.Config{}, link, logger.WithField("component", "grpc"))
		go func() {
			if err := health.ListenAndServe(ctx, cfg.GRPCAddr); err != nil {
				logger.WithError(err).Error("grpc health server error")
			}
		}()
	}

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:      logger.WithField("component", "http"),
		Addr:        cfg.HTTPAddr,
		Extractor:   extractor,
		Encodings:   encodings,
		Enrollment:  enrollment,
		Matcher:     matcher,
		Access:      access,
		Control:     control,
		Ledger:      ledger,
		Link:        link,
		CapturesDir: cfg.CapturesDir,
	})

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server error")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if health != nil {
		health.Stop()
	}
	return nil
}
