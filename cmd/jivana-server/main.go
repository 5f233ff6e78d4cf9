package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/advait5300/jivana-health-platform/internal/config"
	"github.com/advait5300/jivana-health-platform/internal/domain/bloodtest"
	"github.com/advait5300/jivana-health-platform/internal/domain/identity"
	"github.com/advait5300/jivana-health-platform/internal/domain/sharing"
	"github.com/advait5300/jivana-health-platform/internal/platform/analysis"
	"github.com/advait5300/jivana-health-platform/internal/platform/auth"
	"github.com/advait5300/jivana-health-platform/internal/platform/cache"
	"github.com/advait5300/jivana-health-platform/internal/platform/db"
	"github.com/advait5300/jivana-health-platform/internal/platform/health"
	"github.com/advait5300/jivana-health-platform/internal/platform/logging"
	"github.com/advait5300/jivana-health-platform/internal/platform/metrics"
	"github.com/advait5300/jivana-health-platform/internal/platform/middleware"
	"github.com/advait5300/jivana-health-platform/internal/platform/objectstore"
	"github.com/advait5300/jivana-health-platform/internal/platform/validate"
	"github.com/advait5300/jivana-health-platform/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "jivana-server",
		Short: "Jivana blood test records API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(shareCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// withPool loads config, opens the database and runs fn.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
				count, err := db.NewMigrator(pool, migrations.FS).Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Printf("Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
				statuses, err := db.NewMigrator(pool, migrations.FS).Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				printStatus(os.Stdout, statuses)
				return nil
			})
		},
	})

	return cmd
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "-------", "----", "------", "----------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format(time.RFC3339)
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a user linked to an identity-provider account",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := identity.RegisterInput{}
			in.Username, _ = cmd.Flags().GetString("username")
			in.Password, _ = cmd.Flags().GetString("password")
			in.Email, _ = cmd.Flags().GetString("email")
			in.CognitoID, _ = cmd.Flags().GetString("cognito-id")

			return withPool(func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
				u, err := identity.NewService(identity.NewUserRepoPG(pool)).Register(ctx, in)
				if err != nil {
					return err
				}
				fmt.Printf("Created user %s (%s)\n", u.Username, u.ID)
				return nil
			})
		},
	}
	createCmd.Flags().String("username", "", "Unique username")
	createCmd.Flags().String("password", "", "Password (stored as a bcrypt hash)")
	createCmd.Flags().String("email", "", "Unique email address")
	createCmd.Flags().String("cognito-id", "", "Identity-provider subject (Cognito sub)")
	for _, f := range []string{"username", "password", "email", "cognito-id"} {
		_ = createCmd.MarkFlagRequired(f)
	}

	cmd.AddCommand(createCmd)
	return cmd
}

func shareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Manage share links",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "deactivate <token>",
		Short: "Revoke a share link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				logger := logging.New(cfg.LogLevel, true, os.Stderr)
				tests := bloodtest.NewService(bloodtest.NewRepoPG(pool), nil, nil, logger)
				svc := sharing.NewService(sharing.NewRepoPG(pool), tests, logger)
				if err := svc.Deactivate(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("Share link deactivated.")
				return nil
			})
		},
	})

	return cmd
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel, cfg.IsDev(), nil)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	checks := health.NewHandler(3 * time.Second)
	checks.Register("database", db.Check(pool))

	store, err := newObjectStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure object store")
	}
	checks.Register("objectstore", store.Ping)
	logger.Info().Str("backend", cfg.ObjectStore).Str("bucket", cfg.S3Bucket).Msg("object store ready")

	analyzerOpts := []analysis.Option{
		analysis.WithProduction(cfg.IsProduction()),
		analysis.WithLogger(logger),
	}
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL, 0)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		checks.Register("redis", cache.Check(rdb))
		analyzerOpts = append(analyzerOpts, analysis.WithCache(analysis.NewRedisCache(rdb, 0)))
		logger.Info().Msg("analysis cache enabled")
	}

	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure analysis provider")
	}
	if completer == nil {
		logger.Warn().Msg("no analysis credentials; uploads get placeholder analyses")
	}
	analyzer := analysis.NewService(completer, analyzerOpts...)

	e := newServer(cfg, logger, services{
		users:    identity.NewUserRepoPG(pool),
		tests:    bloodtest.NewRepoPG(pool),
		shares:   sharing.NewRepoPG(pool),
		store:    store,
		analyzer: analyzer,
		checks:   checks,
	})
	e.GET("/health/db", db.HealthHandler(pool))

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// services are the collaborators behind the HTTP API.
type services struct {
	users    identity.UserRepository
	tests    bloodtest.Repository
	shares   sharing.Repository
	store    objectstore.Store
	analyzer analysis.Analyzer
	checks   *health.Handler
}

// requestTimeout bounds every request except uploads, whose only external
// deadline is the analysis client's own.
const requestTimeout = 30 * time.Second

func newServer(cfg *config.Config, logger zerolog.Logger, s services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = middleware.NewHTTPErrorHandler(logger)

	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(metrics.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID, auth.DevSubjectHeader},
	}))
	e.Use(middleware.BodyLimit("1M", "6M"))
	e.Use(middleware.RequestTimeout(requestTimeout, 0))
	e.Use(authMiddleware(cfg, logger))
	e.Use(middleware.Audit(logger))

	if s.checks != nil {
		e.GET("/health", s.checks.Liveness)
		e.GET("/health/ready", s.checks.Readiness)
	}
	e.GET("/metrics", metrics.Handler())

	rateCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           10 * time.Minute,
	}
	if rateCfg.RequestsPerSecond <= 0 {
		rateCfg = middleware.DefaultRateLimitConfig()
	}
	api := e.Group("/api", middleware.RateLimit(rateCfg))

	identitySvc := identity.NewService(s.users)
	identity.NewHandler(identitySvc).RegisterRoutes(api)

	testSvc := bloodtest.NewService(s.tests, s.store, s.analyzer, logger)
	bloodtest.NewHandler(testSvc, identitySvc).RegisterRoutes(api,
		middleware.RateLimit(middleware.UploadRateLimitConfig(cfg.UploadRatePerMin)))

	shareSvc := sharing.NewService(s.shares, testSvc, logger)
	sharing.NewHandler(shareSvc).RegisterRoutes(api, auth.RequireRole("admin"))

	return e
}

// authMiddleware verifies bearer tokens against the configured identity
// provider. Development without any provider settings trusts X-Dev-Subject.
func authMiddleware(cfg *config.Config, logger zerolog.Logger) echo.MiddlewareFunc {
	if cfg.IsDev() && cfg.AuthIssuer == "" && cfg.AuthJWKSURL == "" && cfg.AuthSigningKey == "" {
		logger.Warn().Msg("no identity provider configured; using development authentication")
		return auth.DevAuthMiddleware()
	}
	var key []byte
	if cfg.AuthSigningKey != "" {
		key = []byte(cfg.AuthSigningKey)
	}
	return auth.JWTMiddleware(auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		JWKSURL:    cfg.AuthJWKSURL,
		SigningKey: key,
		Skipper:    auth.AuthSkipper,
	})
}

// pingableStore is an object store the readiness check can check.
type pingableStore interface {
	objectstore.Store
	Ping(ctx context.Context) error
}

func newObjectStore(cfg *config.Config) (pingableStore, error) {
	switch cfg.ObjectStore {
	case "s3":
		return objectstore.NewS3Store(objectstore.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			PathStyle: cfg.S3PathStyle,
		})
	case "memory":
		return objectstore.NewMemoryStore(cfg.S3Bucket), nil
	default:
		return nil, fmt.Errorf("unknown object store %q", cfg.ObjectStore)
	}
}

// newCompleter returns nil when the selected provider has no API key.
func newCompleter(ctx context.Context, cfg *config.Config) (analysis.Completer, error) {
	if cfg.AnalysisAPIKey() == "" {
		return nil, nil
	}
	switch cfg.AnalysisProvider {
	case "gemini":
		return analysis.NewGeminiClient(ctx, analysis.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.AnalysisTimeout,
		})
	default:
		return analysis.NewOpenAIClient(analysis.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.AnalysisTimeout,
		}), nil
	}
}
