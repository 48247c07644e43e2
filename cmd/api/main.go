package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/kozzy/chamados/internal/api/http"
	"github.com/kozzy/chamados/internal/api/http/handlers"
	"github.com/kozzy/chamados/internal/auth"
	"github.com/kozzy/chamados/internal/config"
	"github.com/kozzy/chamados/internal/events"
	"github.com/kozzy/chamados/internal/observability"
	"github.com/kozzy/chamados/internal/persistence"
	"github.com/kozzy/chamados/internal/report"
	"github.com/kozzy/chamados/internal/repository"
	"github.com/kozzy/chamados/internal/repository/memory"
	"github.com/kozzy/chamados/internal/seed"
	"github.com/kozzy/chamados/internal/service"
	"github.com/kozzy/chamados/internal/worker"
	"github.com/kozzy/chamados/migrations"
)

// stores groups the repositories for the selected backend.
type stores struct {
	tickets repository.TicketRepository
	history repository.TicketHistoryRepository
	users   repository.UserRepository
	areas   repository.AreaRepository
	resets  repository.PasswordResetRepository
}

func main() {
	envFile := pflag.String("env-file", "", "path to a .env file (defaults to ./.env when present)")
	seedFile := pflag.String("seed", "", "YAML file with initial users and tickets")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), migrations.FS, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	repos := openStores(pg, cfg.Tickets)

	dispatcher := events.NewInMemoryDispatcher(logger)
	var relay events.EventHandler
	if redis.Enabled() {
		relay = events.NewRedisRelay(redis.Client, cfg.Redis.EventsChannel).Handle
	}
	worker.StartChangeNotifier(dispatcher, logger, relay)

	registry := service.NewAreaRegistry(repos.areas, repos.users, dispatcher, logger)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:          repos.users,
		PasswordResetRepo: repos.resets,
		Registry:          registry,
		Logger:            logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  repos.tickets,
		HistoryRepo: repos.history,
		UserRepo:    repos.users,
		Lifecycle:   service.NewLifecycle(cfg.Tickets.StrictTransitions),
		Reports:     report.NewEngine(cfg.Report.Location()),
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	if *seedFile != "" {
		if err := applySeed(ctx, *seedFile, authService, ticketService, repos.users, logger); err != nil {
			logger.Fatal("failed to seed", zap.Error(err))
		}
	}

	metrics := observability.NewMetrics()
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), authService, cfg.Auth.CookieName)
	binder := handlers.NewBinder()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.App.AllowedOrigins)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService, registry, binder, cfg.Auth.CookieName, cfg.Auth.ExposeResetToken),
		Users:          handlers.NewUsersHandler(authService, registry, binder),
		Tickets:        handlers.NewTicketsHandler(ticketService, binder),
		Reports:        handlers.NewReportsHandler(ticketService, binder),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func openStores(pg *persistence.Postgres, cfg config.TicketsConfig) stores {
	if pg.Enabled() {
		pool := pg.PoolHandle()
		return stores{
			tickets: repository.NewTicketRepository(pool),
			history: repository.NewTicketHistoryRepository(pool),
			users:   repository.NewUserRepository(pool),
			areas:   repository.NewAreaRepository(pool),
			resets:  repository.NewPasswordResetRepository(pool),
		}
	}
	tickets := memory.NewTicketStore(cfg.ProtocolStart)
	return stores{
		tickets: tickets,
		history: tickets.History(),
		users:   memory.NewUserStore(),
		areas:   memory.NewAreaStore(),
		resets:  memory.NewPasswordResetStore(),
	}
}

func applySeed(ctx context.Context, path string, authService *service.AuthService, ticketService *service.TicketService, users repository.UserRepository, logger *zap.Logger) error {
	file, err := seed.Load(path)
	if err != nil {
		return err
	}
	result, err := seed.NewSeeder(authService, ticketService, users, logger).Apply(ctx, file)
	if err != nil {
		return err
	}
	logger.Info("seed applied",
		zap.Int("users_created", result.UsersCreated),
		zap.Int("users_skipped", result.UsersSkipped),
		zap.Int("tickets_created", result.TicketsCreated),
		zap.Int("tickets_skipped", result.TicketsSkipped),
	)
	return nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
