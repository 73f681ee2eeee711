package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/BookWave/internal/config"
	"github.com/GoArmGo/BookWave/internal/core/ports"
	"github.com/GoArmGo/BookWave/internal/importer"
	"github.com/GoArmGo/BookWave/internal/usecase"
)

const (
	ModeServer = "server"
	ModeWorker = "worker"
)

// Seeder заполняет пустой каталог при старте сервера
type Seeder interface {
	Run(ctx context.Context, opts importer.Options) (*importer.Summary, error)
}

type App struct {
	cfg           *config.Config
	logger        *slog.Logger
	router        http.Handler
	seeder        Seeder
	coverUseCase  usecase.CoverUseCase
	coverConsumer ports.CoverMirrorConsumer
	closers       []func() error
}

func NewApp(
	cfg *config.Config,
	logger *slog.Logger,
	router http.Handler,
	seeder Seeder,
	coverUseCase usecase.CoverUseCase,
	coverConsumer ports.CoverMirrorConsumer,
	closers ...func() error,
) *App {
	return &App{
		cfg:           cfg,
		logger:        logger,
		router:        router,
		seeder:        seeder,
		coverUseCase:  coverUseCase,
		coverConsumer: coverConsumer,
		closers:       closers,
	}
}

// LoggerIns возвращает основной логгер приложения
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

// Run запускает приложение в режиме server или worker и блокируется до сигнала завершения
func (a *App) Run(ctx context.Context, mode string) error {
	// канал для graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("application mode selected", "mode", mode)

	var err error
	switch mode {
	case ModeServer:
		err = a.runServer(ctx)
	case ModeWorker:
		err = a.runWorker(ctx)
	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'server' или 'worker')", mode)
	}

	// аккуратно закрываем ресурсы
	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("error during shutdown", "error", closeErr)
	}
	return err
}

// Shutdown закрывает ресурсы в обратном порядке открытия
func (a *App) Shutdown() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
