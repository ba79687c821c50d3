package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/homecase-gameapp/internal/infra/config"
	"github.com/mkrupp/homecase-gameapp/internal/infra/logging"
	"github.com/mkrupp/homecase-gameapp/internal/infra/transport/http"
	"github.com/mkrupp/homecase-gameapp/internal/repo/snapshot"
	"github.com/mkrupp/homecase-gameapp/internal/repo/user"
	"github.com/mkrupp/homecase-gameapp/internal/session"
	"github.com/mkrupp/homecase-gameapp/internal/svc/sessionsvc"
	"github.com/mkrupp/homecase-gameapp/internal/svc/sessionsvc/catalogclient"
)

const (
	appName = "demo"
	svcName = "sessionsvc"
)

type Config struct {
	config.EnvConfig

	Log      logging.LoggerConfig                        `envPrefix:"LOG_"`
	Session  sessionsvc.SessionConfig                    `envPrefix:"SESSION_"`
	HTTP     sessionsvc.HTTPTransportConfig              `envPrefix:"HTTP_"`
	User     user.SQLiteUserRepositoryConfig             `envPrefix:"USER_"`
	Snapshot snapshot.FileSystemSnapshotRepositoryConfig `envPrefix:"SNAPSHOT_"`
	Catalog  catalogclient.HTTPClientConfig              `envPrefix:"CATALOG_"`
}

func main() {
	var (
		cfg Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(".env"); err != nil {
		panic(err)
	}

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.sessionsvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	sessionSvc, err := sessionsvc.NewSessionService(
		ctx,
		session.New(),
		user.SQLiteUserRepositoryFactory(cfg.User),
		snapshot.FileSystemSnapshotRepositoryFactory(cfg.Snapshot),
		catalogclient.NewHTTPClient(cfg.Catalog, nil),
		cfg.Session,
	)
	if err != nil {
		return fmt.Errorf("new session service: %w", err)
	}

	defer func() {
		err = errors.Join(err, sessionSvc.Close())
	}()

	stopPruning, err := sessionSvc.ScheduleSnapshotPruning(ctx)
	if err != nil {
		return fmt.Errorf("schedule snapshot pruning: %w", err)
	}
	defer stopPruning()

	httpTransport := sessionsvc.NewHTTPTransport(sessionSvc, cfg.HTTP)

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
