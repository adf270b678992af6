package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/admissions-dev/admissions/db"
	"github.com/admissions-dev/admissions/internal/auth"
	"github.com/admissions-dev/admissions/internal/blob"
	"github.com/admissions-dev/admissions/internal/config"
	"github.com/admissions-dev/admissions/internal/handlers"
	"github.com/admissions-dev/admissions/internal/logger"
	"github.com/admissions-dev/admissions/internal/middleware"
	"github.com/admissions-dev/admissions/internal/monitors"
	"github.com/admissions-dev/admissions/internal/router"
	"github.com/admissions-dev/admissions/internal/services"
	"github.com/admissions-dev/admissions/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

type ServeOptions struct {
	*RootOptions
	SkipMigrate bool
}

func NewServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

The schema is migrated on startup unless --skip-migrate is set.

Example:
  admissions serve --config ./configs/config.yaml
  JWT_SECRET=change-me PORT=8080 admissions serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	registerServeFlags(cmd, opts)

	return cmd
}

// registerServeFlags adds the serve flags to cmd. Both serve and the root
// command carry them.
func registerServeFlags(cmd *cobra.Command, opts *ServeOptions) {
	cmd.Flags().BoolVar(&opts.SkipMigrate, "skip-migrate", false, "do not migrate the schema on startup")
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	gin.SetMode(cfg.Server.Mode)

	conn, err := db.ConnectDatabase(cfg.Database.GetDSN(), databaseOptions(cfg.Database))
	if err != nil {
		return err
	}
	defer db.Close(conn)

	if !opts.SkipMigrate {
		if err := db.MigrateDatabase(conn); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = newRedisClient(cfg.Redis)
		defer redisClient.Close()
	}

	engine, err := buildRouter(cfg, conn, redisClient, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("mode", cfg.Server.Mode))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// buildRouter wires stores, services and handlers. redisClient may be nil,
// in which case login attempts are limited in memory.
func buildRouter(cfg *config.Config, conn *gorm.DB, redisClient *redis.Client, log *zap.Logger) (*gin.Engine, error) {
	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}

	documents := blob.NewDiskStore(cfg.Storage.UploadDir)
	if err := documents.EnsureRoot(); err != nil {
		return nil, err
	}

	users := store.NewUserStore(conn)
	admissions := services.NewAdmissionService(store.NewApplicationStore(conn), documents, log)

	probes := []monitors.Probe{
		{Name: "database", Check: func(ctx context.Context) error { return monitors.CheckDatabase(ctx, conn) }},
		{Name: "uploads", Check: func(context.Context) error { return monitors.CheckUploadDir(documents.Root()) }},
	}

	var limiter middleware.Limiter = middleware.NewMemoryLimiter()
	if redisClient != nil {
		limiter = middleware.NewRedisLimiter(redisClient)
		probes = append(probes, monitors.Probe{
			Name:  "redis",
			Check: func(ctx context.Context) error { return monitors.CheckRedis(ctx, redisClient) },
		})
	}

	h := handlers.New(handlers.Options{
		Users:          users,
		Admissions:     admissions,
		Tokens:         tokens,
		Logger:         log,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		Probes:         probes,
	})

	return router.NewRouter(router.Dependencies{
		Handler: h,
		Tokens:  tokens,
		Users:   users,
		Limiter: limiter,
		LoginRule: middleware.RateLimitRule{
			Name:   "login",
			Limit:  cfg.RateLimit.LoginLimit,
			Window: cfg.RateLimit.LoginWindow,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         log,
	}), nil
}

func newRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
