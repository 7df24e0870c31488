package server

import (
	"camera-ingest/config"
	"camera-ingest/constant"
	"camera-ingest/dto"
	jobHandler "camera-ingest/handler"
	"camera-ingest/pkg/logger"
	"camera-ingest/pkg/notify"
	"camera-ingest/pkg/rabbitmq"
	"camera-ingest/repository"
	"camera-ingest/service"
	"context"
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(logger.Context(cfg.App.Environment), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	components, err := service.NewComponents(cfg)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to build services")
		return
	}

	repo, err := repository.NewRepo(cfg.DB)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to open database")
		return
	}
	if err := repo.Migrate(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to migrate database")
		return
	}

	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
	}

	notifier, err := notify.NewSender(cfg.Notification.URLs, cfg.Notification.Timeout)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to configure notifications")
		return
	}

	publisher := rabbitmq.NewPublisher[dto.IngestJobMessage](conn, cfg.Queue)
	ingestService := service.NewService(repo, components.Directory, components.Pipeline, publisher, components.Defaults)

	if conn != nil {
		serviceDeps := jobHandler.ServiceDependencies{
			IngestService: ingestService,
		}
		ingestConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, cfg.Server.Workers, jobHandler.IngestHandler)
		go func() {
			err := ingestConsumer.Consume(ctx, serviceDeps)
			if err != nil && !errors.Is(err, context.Canceled) {
				zerolog.Ctx(ctx).Error().Err(err).Msg("Ingest consumer error")
			}
		}()
	}

	r := NewRouter(ctx, &API{
		Directory: components.Directory,
		Sessions:  service.NewSessionStore(cfg.Server.SessionTTL),
		Ingest:    ingestService,
		Composer:  components.Composer,
		Notifier:  notifier,
	})

	handler := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Str("media_backend", components.Backend.Name()).Msg("start http server")
		if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer stop()
	if err := handler.Shutdown(shutdownCtx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}
