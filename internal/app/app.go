package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aidar/member-crm/internal/config"
	"github.com/aidar/member-crm/internal/handler"
	"github.com/aidar/member-crm/internal/logger"
	"github.com/aidar/member-crm/internal/middleware"
	"github.com/aidar/member-crm/internal/notify"
	"github.com/aidar/member-crm/internal/repository"
	"github.com/aidar/member-crm/internal/repository/postgres"
	"github.com/aidar/member-crm/internal/repository/redis"
	"github.com/aidar/member-crm/internal/service"
	"github.com/aidar/member-crm/internal/webhook"
)

// App представляет приложение со всеми зависимостями
type App struct {
	config *config.Config
	db     *pgxpool.Pool
	redis  *goredis.Client
	server *http.Server
	logger *zap.Logger
}

// New создает новый экземпляр приложения
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	app := &App{
		config: cfg,
		logger: log,
	}

	return app, nil
}

// Logger возвращает логгер приложения
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Initialize инициализирует все компоненты приложения
func (a *App) Initialize(ctx context.Context) error {
	// Подключаемся к базе данных
	if err := a.connectDB(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Redis опционален: без него claim'ы вебхуков хранятся в PostgreSQL
	if a.config.Redis.Enabled() {
		if err := a.connectRedis(ctx); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	notifier, err := a.buildNotifier(ctx)
	if err != nil {
		return fmt.Errorf("failed to configure notifications: %w", err)
	}

	// Настраиваем HTTP сервер и роутинг
	a.setupServer(notifier)

	a.logger.Info("Application initialized successfully")
	return nil
}

// connectDB устанавливает подключение к PostgreSQL с connection pool
func (a *App) connectDB(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(a.config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}

	// Настраиваем размеры connection pool
	poolConfig.MaxConns = a.config.Database.MaxConns
	poolConfig.MinConns = a.config.Database.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Проверяем подключение к БД
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = pool
	a.logger.Info("Connected to database")
	return nil
}

// connectRedis подключается к Redis для хранения claim'ов вебхуков
func (a *App) connectRedis(ctx context.Context) error {
	client := redis.NewClient(a.config.Redis.Addr, a.config.Redis.Password, a.config.Redis.DB)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return err
	}

	a.redis = client
	a.logger.Info("Connected to redis", zap.String("addr", a.config.Redis.Addr))
	return nil
}

// buildNotifier собирает каналы уведомлений из конфигурации
func (a *App) buildNotifier(ctx context.Context) (notify.Notifier, error) {
	var channels []notify.Notifier

	if a.config.Slack.WebhookURL != "" {
		channels = append(channels, notify.NewSlack(a.config.Slack.WebhookURL, a.config.Slack.Timeout))
	}

	if a.config.SES.Enabled() {
		ses, err := notify.NewSES(ctx, a.config.SES.Region, a.config.SES.From, a.config.SES.Recipients)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ses)
	}

	if len(channels) == 0 {
		a.logger.Warn("No notification channels configured, notifications are disabled")
		return notify.Noop{}, nil
	}
	return notify.NewMulti(channels...), nil
}

// claimStore выбирает хранилище claim'ов вебхуков
func (a *App) claimStore() repository.ClaimStore {
	if a.redis != nil {
		return redis.NewClaimStore(a.redis)
	}
	return postgres.NewClaimStore(a.db)
}

// setupServer инициализирует HTTP роутер и обработчики
func (a *App) setupServer(notifier notify.Notifier) {
	// Инициализируем слой репозиториев (работа с БД)
	staffRepo := postgres.NewStaffRepository(a.db)
	appRepo := postgres.NewApplicationRepository(a.db)
	memberRepo := postgres.NewMemberRepository(a.db)
	teamRepo := postgres.NewTeamMemberRepository(a.db)
	noteRepo := postgres.NewNoteRepository(a.db)
	cancellationRepo := postgres.NewCancellationRepository(a.db)
	activityRepo := postgres.NewActivityRepository(a.db)
	importRepo := postgres.NewImportRepository(a.db)

	// Инициализируем слой сервисов (бизнес-логика)
	recorder := service.NewRecorder(activityRepo, notifier, a.logger)
	authService := service.NewAuthService(
		staffRepo,
		a.config.JWT.Secret,
		a.config.JWT.GetExpiration(),
	)
	appService := service.NewApplicationService(appRepo, recorder)
	memberService := service.NewMemberService(memberRepo, teamRepo, noteRepo, recorder)
	teamService := service.NewTeamMemberService(teamRepo, memberRepo, recorder)
	noteService := service.NewNoteService(noteRepo, memberRepo, appRepo, recorder)
	activityService := service.NewActivityService(activityRepo, cancellationRepo)
	importService := service.NewImportService(memberRepo, appRepo, teamRepo, importRepo, recorder)
	onboardingService := service.NewOnboardingService(memberRepo, recorder)
	statsService := service.NewStatsService(a.db)
	webhookService := service.NewWebhookService(
		a.claimStore(),
		a.config.Redis.ClaimTTL,
		appRepo,
		memberRepo,
		appService,
		onboardingService,
		service.NewMatcher(memberRepo, appRepo),
		recorder,
	)

	// Инициализируем HTTP обработчики
	authHandler := handler.NewAuthHandler(authService)
	appHandler := handler.NewApplicationHandler(appService)
	memberHandler := handler.NewMemberHandler(memberService)
	teamHandler := handler.NewTeamMemberHandler(teamService)
	noteHandler := handler.NewNoteHandler(noteService)
	activityHandler := handler.NewActivityHandler(activityService)
	importHandler := handler.NewImportHandler(importService)
	onboardingHandler := handler.NewOnboardingHandler(onboardingService)
	statsHandler := handler.NewStatsHandler(statsService)
	webhookHandler := handler.NewWebhookHandler(webhookService, webhook.Secrets{
		Typeform:           a.config.Webhooks.TypeformSecret,
		CalendlySigningKey: a.config.Webhooks.CalendlySigningKey,
		Wasender:           a.config.Webhooks.WasenderSecret,
		SamCart:            a.config.Webhooks.SamCartSecret,
		SlackSigning:       a.config.Webhooks.SlackSigningSecret,
	}, a.config.Webhooks.MaxBodyBytes)

	// Инициализируем middleware для JWT авторизации
	authMiddleware := middleware.AuthMiddleware(authService)

	// Настраиваем роутер
	r := chi.NewRouter()

	// Глобальные middleware (применяются ко всем запросам)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(a.logger))
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// Health check для мониторинга
	r.Get("/health", a.health)
	r.Handle("/metrics", promhttp.Handler())

	// Публичные эндпоинты (без авторизации)
	r.Post("/auth/login", authHandler.Login)

	// Вебхуки проверяются подписью провайдера, а не JWT
	r.Post("/webhooks/{provider}", webhookHandler.Receive)

	// Защищенные эндпоинты (требуют JWT токен в заголовке Authorization)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		requireID := middleware.RequireUUID("id")

		r.Route("/applications", func(r chi.Router) {
			r.Get("/", appHandler.List)
			r.Post("/", appHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(requireID)
				r.Get("/", appHandler.Get)
				r.Patch("/", appHandler.Update)
				r.Delete("/", appHandler.Delete)
				r.Patch("/status", appHandler.UpdateStatus)
				r.Post("/convert", appHandler.Convert)
			})
		})

		r.Route("/members", func(r chi.Router) {
			r.Get("/", memberHandler.List)
			r.Post("/", memberHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(requireID)
				r.Get("/", memberHandler.Get)
				r.Patch("/", memberHandler.Update)
				r.Delete("/", memberHandler.Delete)
				r.Post("/cancel", memberHandler.Cancel)
				r.Get("/team-members", teamHandler.ListByOwner)
				r.Post("/team-members", teamHandler.Create)
				r.Get("/onboarding", onboardingHandler.State)
				r.Post("/onboarding/advance", onboardingHandler.Advance)
			})
		})

		r.Route("/team-members", func(r chi.Router) {
			r.Get("/", teamHandler.List)
			r.With(requireID).Patch("/{id}", teamHandler.Update)
			r.With(requireID).Delete("/{id}", teamHandler.Delete)
		})

		r.Get("/notes", noteHandler.List)
		r.Post("/notes", noteHandler.Create)
		r.With(requireID).Delete("/notes/{id}", noteHandler.Delete)

		r.Get("/cancellations", activityHandler.Cancellations)
		r.Get("/activity", activityHandler.List)
		r.Get("/stats", statsHandler.GetStats)

		r.Get("/import/history", importHandler.History)
		r.Post("/import/{kind}", importHandler.Upload)
	})

	// Создаем HTTP сервер с настройками таймаутов
	addr := fmt.Sprintf("%s:%s", a.config.Server.Host, a.config.Server.Port)
	a.server = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	a.logger.Info("HTTP server configured", zap.String("addr", addr))
}

// health проверяет доступность БД и Redis
func (a *App) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "database": "ok"}
	code := http.StatusOK

	if err := a.db.Ping(ctx); err != nil {
		status["status"], status["database"] = "degraded", "unavailable"
		code = http.StatusServiceUnavailable
	}
	if a.redis != nil {
		status["redis"] = "ok"
		if err := redis.NewClaimStore(a.redis).Ping(ctx); err != nil {
			status["status"], status["redis"] = "degraded", "unavailable"
			code = http.StatusServiceUnavailable
		}
	}

	handler.RespondWithJSON(w, r, code, status)
}

// Run запускает HTTP сервер
func (a *App) Run() error {
	a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
	return a.server.ListenAndServe()
}

// Shutdown корректно останавливает приложение
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application")

	// Останавливаем HTTP сервер (ждем завершения текущих запросов)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}

	// Закрываем подключения к базе данных
	if a.db != nil {
		a.db.Close()
	}

	a.logger.Info("Application stopped gracefully")
	_ = a.logger.Sync()
	return nil
}
