package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Skotchmaster/catalogue/internal/config"
	"github.com/Skotchmaster/catalogue/internal/db"
	"github.com/Skotchmaster/catalogue/internal/es"
	"github.com/Skotchmaster/catalogue/internal/hash"
	"github.com/Skotchmaster/catalogue/internal/httpserver"
	"github.com/Skotchmaster/catalogue/internal/logging"
	"github.com/Skotchmaster/catalogue/internal/metrics"
	"github.com/Skotchmaster/catalogue/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/catalogue/internal/middleware/logging"
	"github.com/Skotchmaster/catalogue/internal/mykafka"
	"github.com/Skotchmaster/catalogue/internal/notify"
	"github.com/Skotchmaster/catalogue/internal/repo"
	"github.com/Skotchmaster/catalogue/internal/service"
	"github.com/Skotchmaster/catalogue/internal/service/search"
	"github.com/Skotchmaster/catalogue/internal/tokens"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply schema migrations before serving")
}

func newNotifier(cfg config.Config) service.Notifier {
	if cfg.Mail.Host == "" {
		return notify.LogSender{}
	}
	mailer := &notify.SMTPMailer{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	}
	return notify.NewBreaker(mailer, cfg.Breaker.ConsecutiveFailures, cfg.Breaker.OpenTimeout)
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := logging.New(cfg.Log.Level).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	gdb, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	if migrateOnStart {
		if err := db.Migrate(ctx, gdb); err != nil {
			return err
		}
	}

	m := metrics.New()
	r := repo.New(gdb)
	tks := tokens.NewService(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	users := &service.UserService{Repo: r, Tokens: tks, Passwords: hash.New(cfg.Password.BcryptCost)}
	catalog := &service.CatalogService{
		Repo:            r,
		Users:           r,
		Notifier:        newNotifier(cfg),
		Metrics:         m,
		Topic:           cfg.Kafka.Topic,
		NotifyFailFatal: cfg.Notify.FailFatal,
		NotifyTimeout:   cfg.Notify.Timeout,
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := mykafka.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			return err
		}
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Error("kafka producer close failed", "error", err)
			}
		}()
		catalog.Events = producer
	}

	var searchHandler *httpserver.SearchHTTP
	if cfg.Search.URL != "" {
		client, err := es.NewClient(ctx, es.Config{
			URL:      cfg.Search.URL,
			Username: cfg.Search.Username,
			Password: cfg.Search.Password,
		})
		if err != nil {
			// search is optional; the catalogue keeps serving without it
			logger.Warn("elasticsearch unavailable, search disabled", "error", err)
		} else {
			idx := &search.Service{ES: client, Index: cfg.Search.Index}
			catalog.Index = idx
			searchHandler = &httpserver.SearchHTTP{Svc: idx}
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(m.Middleware())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalog},
		AuthHandler:    &httpserver.AuthHTTP{Svc: users},
		AdminHandler:   &httpserver.AdminHTTP{Svc: users},
		SearchHandler:  searchHandler,
		Auth:           auth.New(users),
		Metrics:        m,
		Ready:          pinger(gdb),
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           e,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: 3 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("catalogue listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("catalogue stopped")
	return nil
}

func pinger(gdb *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
