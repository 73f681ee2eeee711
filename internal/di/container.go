package di

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/GoArmGo/BookWave/internal/adapter/coverfetch"
	"github.com/GoArmGo/BookWave/internal/adapter/storage/minio"
	"github.com/GoArmGo/BookWave/internal/app"
	"github.com/GoArmGo/BookWave/internal/auth"
	"github.com/GoArmGo/BookWave/internal/config"
	"github.com/GoArmGo/BookWave/internal/database/client"
	"github.com/GoArmGo/BookWave/internal/database/postgres"
	"github.com/GoArmGo/BookWave/internal/database/storage"
	"github.com/GoArmGo/BookWave/internal/handler"
	"github.com/GoArmGo/BookWave/internal/importer"
	"github.com/GoArmGo/BookWave/internal/logger"
	"github.com/GoArmGo/BookWave/internal/rabbitmq"
	"github.com/GoArmGo/BookWave/internal/usecase"
)

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
// В режиме worker HTTP-слой не собирается, в режиме server не подключается MinIO
func BuildApp(ctx context.Context, mode string) (*app.App, error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	slogger := newLogger(cfg)

	var closers []func() error
	fail := func(err error) (*app.App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	// 2. Схема бд
	if err := postgres.ApplyMigrations(cfg.MigrationsPath, cfg.DatabaseURL, slogger); err != nil {
		return nil, err
	}

	// 3. Подключения к PostgreSQL: sqlx для каталога и аренды, gorm для учетных записей
	dbClient, err := client.NewClient(ctx, cfg, slogger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, dbClient.Close)

	gormDB, err := postgres.OpenGorm(cfg.DatabaseURL, slogger)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() error { return postgres.CloseGorm(gormDB) })

	// 4. Инициализация хранилищ
	bookStorage := storage.NewBookStorage(dbClient.DB, slogger)
	ratingStorage := storage.NewRatingStorage(dbClient.DB, slogger)
	reservationStorage := storage.NewReservationStorage(dbClient.DB, slogger)
	userStorage := postgres.NewGormUserStorage(gormDB, slogger)
	addressStorage := postgres.NewGormAddressStorage(gormDB)
	cardStorage := postgres.NewGormCardStorage(gormDB)

	// 5. Инициализация RabbitMQ клиента (publisher и consumer)
	rabbitMQClient, err := rabbitmq.NewClient(cfg, slogger)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() error { rabbitMQClient.Close(); return nil })

	if mode == app.ModeWorker {
		// 6. Файловое хранилище и загрузка обложек нужны только воркеру
		fileStorage, err := minio.NewMinioClient(ctx, cfg, slogger)
		if err != nil {
			return fail(err)
		}
		coverUseCase := usecase.NewCoverUseCase(bookStorage, coverfetch.NewClient(cfg), fileStorage, slogger)

		slogger.Info("dependencies initialized", "mode", mode)
		return app.NewApp(cfg, slogger, nil, nil, coverUseCase, rabbitMQClient, closers...), nil
	}

	// 7. Инициализация бизнес-логики (usecases)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	bookUseCase := usecase.NewBookUseCase(bookStorage, ratingStorage, reservationStorage, userStorage, addressStorage, cardStorage, slogger)
	accountUseCase := usecase.NewAccountUseCase(userStorage, addressStorage, cardStorage, tokens, slogger)
	adminUseCase := usecase.NewAdminUseCase(userStorage, bookStorage, reservationStorage, rabbitMQClient, slogger)

	// 8. HTTP слой
	router := handler.NewRouter(handler.RouterDeps{
		Books:          handler.NewBookHandler(bookUseCase, slogger),
		Accounts:       handler.NewAccountHandler(accountUseCase, slogger),
		Admin:          handler.NewAdminHandler(adminUseCase, slogger),
		Tokens:         tokens,
		Health:         dbClient.Ping,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         slogger,
	})

	seeder := importer.New(gormDB, rabbitMQClient, slogger)

	slogger.Info("dependencies initialized", "mode", mode)
	return app.NewApp(cfg, slogger, router, seeder, nil, nil, closers...), nil
}

// ImportDeps зависимости консольного импорта
type ImportDeps struct {
	Config   *config.Config
	Logger   *slog.Logger
	Importer *importer.Importer
	Close    func()
}

// BuildImporter собирает импортер каталога. Очередь подключается только для зеркалирования обложек
func BuildImporter(mirrorCovers bool) (*ImportDeps, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	slogger := newLogger(cfg)

	if err := postgres.ApplyMigrations(cfg.MigrationsPath, cfg.DatabaseURL, slogger); err != nil {
		return nil, err
	}

	gormDB, err := postgres.OpenGorm(cfg.DatabaseURL, slogger)
	if err != nil {
		return nil, err
	}

	if !mirrorCovers {
		return &ImportDeps{
			Config:   cfg,
			Logger:   slogger,
			Importer: importer.New(gormDB, nil, slogger),
			Close:    closeGorm(gormDB, slogger),
		}, nil
	}

	rabbitMQClient, err := rabbitmq.NewClient(cfg, slogger)
	if err != nil {
		closeGorm(gormDB, slogger)()
		return nil, err
	}

	closeDB := closeGorm(gormDB, slogger)
	return &ImportDeps{
		Config:   cfg,
		Logger:   slogger,
		Importer: importer.New(gormDB, rabbitMQClient, slogger),
		Close: func() {
			rabbitMQClient.Close()
			closeDB()
		},
	}, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	slogger := logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)
	return slogger
}

func closeGorm(db *gorm.DB, logger *slog.Logger) func() {
	return func() {
		if err := postgres.CloseGorm(db); err != nil {
			logger.Warn("error closing gorm connection", "error", err)
		}
	}
}
