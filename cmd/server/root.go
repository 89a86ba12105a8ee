package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yukikurage/case-billing-api/internal/config"
	"github.com/yukikurage/case-billing-api/internal/constants"
	"github.com/yukikurage/case-billing-api/internal/database"
	"github.com/yukikurage/case-billing-api/internal/handlers"
	"github.com/yukikurage/case-billing-api/internal/idempotency"
	"github.com/yukikurage/case-billing-api/internal/logger"
	"github.com/yukikurage/case-billing-api/internal/middleware"
	"github.com/yukikurage/case-billing-api/internal/repository"
	"github.com/yukikurage/case-billing-api/internal/services"
)

const shutdownTimeout = 10 * time.Second

func newRootCmd(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "case-billing-api",
		Short: "Invoicing and payment API for legal case management",
		// serve is the default command
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "database driver: mysql, postgres or sqlite")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
	serveCmd.Flags().StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.Connect(cfg); err != nil {
				return err
			}
			return database.Migrate()
		},
	}

	rootCmd.AddCommand(serveCmd, migrateCmd)
	return rootCmd
}

// Execute runs the CLI and exits non-zero on failure
func Execute(cfg *config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().Err(err).Msg("Command execution failed")
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.WithComponent("server")

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		return err
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		return err
	}

	// Setup session middleware with Redis
	store, err := redisStore.NewStore(
		10,              // Redis pool size
		"tcp",           // network type
		cfg.RedisAddr(), // Redis address from config
		cfg.RedisPassword,
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		return fmt.Errorf("failed to create Redis session store: %w", err)
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})

	idempotencyStore, closeStore, err := newIdempotencyStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	clientRepo := repository.NewClientRepository(db)
	caseRepo := repository.NewCaseRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db, repository.NewSequenceRepository(db))
	paymentRepo := repository.NewPaymentRepository(db)

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, line item drafting is disabled")
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	handlers.RegisterRoutes(r, handlers.Services{
		Auth:           services.NewAuthService(userRepo, orgRepo),
		Organization:   services.NewOrganizationService(orgRepo),
		Client:         services.NewClientService(clientRepo),
		Case:           services.NewCaseService(caseRepo, clientRepo),
		Invoice:        services.NewInvoiceService(invoiceRepo, clientRepo, caseRepo),
		Payment:        services.NewPaymentService(invoiceRepo, paymentRepo),
		AI:             aiService,
		Idempotency:    idempotencyStore,
		IdempotencyTTL: cfg.IdempotencyTTL,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newIdempotencyStore(ctx context.Context, cfg *config.Config) (idempotency.Store, func(), error) {
	log := logger.WithComponent("idempotency")

	switch cfg.IdempotencyBackend {
	case "redis":
		store := idempotency.NewRedisStore(cfg.RedisAddr(), cfg.RedisPassword, 0)
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis for idempotency keys: %w", err)
		}
		return store, func() { store.Close() }, nil
	case "memory":
		log.Warn().Msg("Idempotency keys are kept in memory and are not shared between instances")
		return idempotency.NewMemoryStore(), func() {}, nil
	case "none", "":
		return nil, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported IDEMPOTENCY_BACKEND %q", cfg.IdempotencyBackend)
	}
}
