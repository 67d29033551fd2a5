package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"booknook-go/internal/config"
	"booknook-go/internal/db"
	bookdomain "booknook-go/internal/domain/book"
	clubdomain "booknook-go/internal/domain/club"
	discussiondomain "booknook-go/internal/domain/discussion"
	eventdomain "booknook-go/internal/domain/event"
	"booknook-go/internal/domain/media"
	notificationdomain "booknook-go/internal/domain/notification"
	reviewdomain "booknook-go/internal/domain/review"
	userdomain "booknook-go/internal/domain/user"
	"booknook-go/internal/integration/googlebooks"
	"booknook-go/internal/integration/kafka"
	"booknook-go/internal/integration/mail"
	"booknook-go/internal/integration/supabase"
	"booknook-go/internal/metrics"
	"booknook-go/internal/repository/inmemory"
	redisrepo "booknook-go/internal/repository/redis"
	bookrepo "booknook-go/internal/repository/postgres/book"
	clubrepo "booknook-go/internal/repository/postgres/club"
	discussionrepo "booknook-go/internal/repository/postgres/discussion"
	eventrepo "booknook-go/internal/repository/postgres/event"
	notificationrepo "booknook-go/internal/repository/postgres/notification"
	reviewrepo "booknook-go/internal/repository/postgres/review"
	userrepo "booknook-go/internal/repository/postgres/user"
	"booknook-go/internal/transport/httpserver"
	"booknook-go/internal/transport/httpserver/handler"
	bookshandler "booknook-go/internal/transport/httpserver/handler/books"
	clubshandler "booknook-go/internal/transport/httpserver/handler/clubs"
	commonhandler "booknook-go/internal/transport/httpserver/handler/common"
	discussionshandler "booknook-go/internal/transport/httpserver/handler/discussions"
	eventshandler "booknook-go/internal/transport/httpserver/handler/events"
	notificationshandler "booknook-go/internal/transport/httpserver/handler/notifications"
	authmw "booknook-go/internal/transport/httpserver/middleware"
	"booknook-go/pkg/logger"
	"gorm.io/gorm"
)

const deliveryDrainTimeout = 10 * time.Second

type App struct {
	cfg        config.Config
	log        logger.Logger
	httpServer *http.Server
	db         *gorm.DB
	closers    []io.Closer

	notifications *notificationdomain.Service
	stopWorker    context.CancelFunc
	workerDone    chan struct{}
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg: cfg,
		log: log,
		db:  dbConn,
	}
	if err := db.Migrate(dbConn, log); err != nil {
		_ = a.Close()
		return nil, err
	}

	log.Info("app: initializing notifications")
	broker, err := a.newBroker()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	components := Build(cfg, dbConn, broker, log)
	a.closers = append(a.closers, components.Closers...)
	a.notifications = components.Notifications

	log.Info("app: initializing http server")
	a.httpServer = httpserver.New(cfg, components.Router)

	workerCtx, cancel := context.WithCancel(context.Background())
	a.stopWorker = cancel
	a.workerDone = make(chan struct{})
	go func() {
		defer close(a.workerDone)
		components.Worker.Run(workerCtx)
	}()

	return a, nil
}

// Components is the wired application minus its process lifecycle.
type Components struct {
	Router        http.Handler
	Worker        *notificationdomain.Worker
	Notifications *notificationdomain.Service
	Closers       []io.Closer
}

// Build wires repositories, services and handlers on top of an open
// database and a notification broker.
func Build(cfg config.Config, dbConn *gorm.DB, broker notificationdomain.Broker, log logger.Logger) *Components {
	components := &Components{}
	m := metrics.New()

	supabaseClient := supabase.NewClient(supabase.Config{
		URL:            cfg.Supabase.URL,
		PublishableKey: cfg.Supabase.PublishableKey,
		ServiceKey:     cfg.Supabase.ServiceKey,
		Timeout:        cfg.Storage.Timeout,
	})
	if !supabaseClient.Configured() {
		log.Warn("app: supabase not configured, auth proxy and uploads disabled")
	}

	notificationOpts := []notificationdomain.Option{
		notificationdomain.WithBroker(broker),
		notificationdomain.WithRecorder(m),
		notificationdomain.WithMaxAttempts(cfg.Fanout.MaxAttempts),
	}
	if cfg.Kafka.Enabled() {
		sink := kafka.NewSink(kafka.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		components.Closers = append(components.Closers, sink)
		notificationOpts = append(notificationOpts, notificationdomain.WithSinks(sink))
		log.Info("app: kafka sink enabled", "topic", cfg.Kafka.Topic)
	}
	if cfg.SMTP.Enabled() {
		notificationOpts = append(notificationOpts, notificationdomain.WithSinks(mail.NewSink(mail.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})))
		log.Info("app: smtp sink enabled", "host", cfg.SMTP.Host)
	}
	notifications := notificationdomain.NewService(notificationrepo.NewPostgres(dbConn), log, notificationOpts...)

	avatars := media.Bucket{Storage: supabaseClient, Name: cfg.Storage.AvatarsBucket, MaxBytes: cfg.Storage.MaxUploadBytes}
	images := media.Bucket{Storage: supabaseClient, Name: cfg.Storage.DiscussionImagesBucket, MaxBytes: cfg.Storage.MaxUploadBytes}

	books := bookrepo.NewPostgres(dbConn)
	users := userdomain.NewService(userrepo.NewPostgres(dbConn), avatars)
	clubs := clubdomain.NewService(clubrepo.NewPostgres(dbConn), notifications)
	discussions := discussiondomain.NewService(discussionrepo.NewPostgres(dbConn), clubs, notifications, images)
	catalog := googlebooks.NewClient(googlebooks.Config{
		BaseURL: cfg.GoogleBooks.BaseURL,
		APIKey:  cfg.GoogleBooks.APIKey,
		Timeout: cfg.GoogleBooks.Timeout,
	})
	bookService := bookdomain.NewService(books, catalog, clubs, notifications, cfg.GoogleBooks.MaxResults)
	bookService.SetRecorder(m)
	bookService.SetCache(inmemory.NewCatalogCache(), cfg.GoogleBooks.CacheTTL)
	reviews := reviewdomain.NewService(reviewrepo.NewPostgres(dbConn), books, clubs)
	events := eventdomain.NewService(eventrepo.NewPostgres(dbConn), clubs, notifications)

	handlers := &handler.Handlers{
		Common:        commonhandler.New(users, supabaseClient, cfg.Storage.MaxUploadBytes, log),
		Clubs:         clubshandler.New(clubs, log),
		Discussions:   discussionshandler.New(discussions, cfg.Storage.MaxUploadBytes, log),
		Books:         bookshandler.New(bookService, reviews, log),
		Events:        eventshandler.New(events, log),
		Notifications: notificationshandler.New(notifications, log),
	}
	auth := authmw.NewSupabaseAuth(cfg.Supabase, supabaseClient, users, log)

	components.Router = httpserver.NewRouter(cfg, handlers, auth, m, log)
	components.Notifications = notifications
	components.Worker = notificationdomain.NewWorker(notifications, log, cfg.Fanout.PollInterval, cfg.Fanout.BatchSize)
	return components
}

// newBroker picks Redis pub/sub when configured so streams work across
// instances, and the in-process broker otherwise.
func (a *App) newBroker() (notificationdomain.Broker, error) {
	if !a.cfg.Redis.Enabled() {
		a.log.Info("app: using in-memory notification broker")
		return inmemory.NewNotificationBroker(), nil
	}

	client, err := redisrepo.NewClient(context.Background(), redisrepo.Config{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client)
	a.log.Info("app: using redis notification broker", "addr", a.cfg.Redis.Addr)
	return redisrepo.NewNotificationBroker(client, a.log), nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	if a.stopWorker != nil {
		a.stopWorker()
		<-a.workerDone
	}

	var errs []error
	if a.notifications != nil {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryDrainTimeout)
		if err := a.notifications.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain notification deliveries: %w", err))
		}
		cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			errs = append(errs, err)
		} else if err := sqlDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
