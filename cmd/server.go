package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/blog-be/internal/api"
	"github.com/isdelr/blog-be/internal/auth"
	"github.com/isdelr/blog-be/internal/config"
	"github.com/isdelr/blog-be/internal/logger"
	"github.com/isdelr/blog-be/internal/monitoring"
	"github.com/isdelr/blog-be/internal/mq"
	"github.com/isdelr/blog-be/internal/services"
	"github.com/isdelr/blog-be/internal/storage"
	"github.com/isdelr/blog-be/internal/store"
	"github.com/isdelr/blog-be/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the blog HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		logger.Init(cfg.LogLevel, !cfg.IsProduction())
		return runServer(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// An unreachable store is logged, not fatal: requests fail until it
	// comes back and /healthz reports it.
	st, err := store.Open(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
	if st == nil {
		return fmt.Errorf("open store: %w", err)
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize database, serving without a working store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to close store")
		}
	}()

	uploads, err := storage.New(ctx, cfg.Upload)
	if err != nil {
		return fmt.Errorf("init upload storage: %w", err)
	}

	var publisher services.Publisher
	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		log.Error().Err(err).Str("backend", cfg.MQ.Backend).Msg("Failed to connect to message broker, events stay local")
	} else if broker != nil {
		publisher = broker
		defer broker.Close()
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Set up services
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	eventService := services.NewEventService(st.Events, hub, publisher, cfg.EventsChannel)
	userService := services.NewUserService(st.Users, tokens, eventService)
	postService := services.NewPostService(st.Posts, eventService)
	uploadService := services.NewUploadService(uploads)

	uploadDir, _ := uploads.LocalDir()
	monitor := monitoring.NewHealthMonitor(st, hub, uploadDir)
	if err := monitor.Start(cfg.HealthCron); err != nil {
		return fmt.Errorf("start health monitor: %w", err)
	}
	defer monitor.Stop()

	router := api.NewRouter(hub, tokens, api.Services{
		Users:   userService,
		Posts:   postService,
		Uploads: uploadService,
		Events:  eventService,
		Health:  monitor,
	}, api.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		UploadDir:      uploadDir,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("upload_backend", cfg.Upload.Backend).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exiting")
	return nil
}
