package main

import (
	"context"
	"fmt"
	"log"

	goredis "github.com/go-redis/redis/v7"

	"poupa/internal/domain/account"
	"poupa/internal/domain/banksync"
	"poupa/internal/domain/connection"
	"poupa/internal/domain/goal"
	"poupa/internal/domain/notification"
	"poupa/internal/domain/transaction"
	"poupa/internal/domain/user"
	"poupa/internal/infrastructure/firebase"
	"poupa/internal/infrastructure/pluggy"
	"poupa/internal/infrastructure/postgres"
	"poupa/internal/infrastructure/postgres/listener"
	"poupa/internal/infrastructure/redis"
	httphandlers "poupa/internal/interfaces/http"
	"poupa/internal/interfaces/scheduler"
	"poupa/internal/shared/auth"
	"poupa/internal/shared/config"
	"poupa/internal/shared/messages"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB    *postgres.DB
	Redis *goredis.Client

	// Handlers
	HealthHandler       *httphandlers.HealthHandler
	AuthHandler         *httphandlers.AuthHandler
	UserHandler         *httphandlers.UserHandler
	FunctionsHandler    *httphandlers.FunctionsHandler
	ConnectionHandler   *httphandlers.ConnectionHandler
	AccountHandler      *httphandlers.AccountHandler
	GoalHandler         *httphandlers.GoalHandler
	NotificationHandler *httphandlers.NotificationHandler

	// Auth
	JWT *auth.JWT

	// Background work
	ConnectionService *connection.Service
	Trigger           *scheduler.Trigger
	Sessions          *scheduler.Sessions
	Listener          *listener.TransactionListener
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	deps := &Dependencies{DB: db}

	if err := db.Migrate(ctx); err != nil {
		deps.Close()
		return nil, err
	}
	log.Println("Database schema up to date")

	texts, err := messages.Load(cfg.Notifications.MessagesFile)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to load notification messages: %w", err)
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	connectionRepo := postgres.NewConnectionRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	goalRepo := postgres.NewGoalRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	// Initialize domain services
	userService := user.NewService(userRepo)
	connectionService := connection.NewService(connectionRepo)
	accountService := account.NewService(accountRepo)
	transactionService := transaction.NewService(transactionRepo)
	goalService := goal.NewService(goalRepo, cfg.Goals.IncomeShare)

	// Push notifications are optional; without credentials they are logged only.
	var messenger notification.Messenger
	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := firebase.NewClient(ctx, cfg.Firebase.CredentialsFile, notificationRepo.DeactivateToken)
		if err != nil {
			log.Printf("Warning: Firebase disabled: %v", err)
		} else {
			messenger = fcm
			log.Println("Firebase messaging initialized")
		}
	}
	notificationService := notification.NewService(notificationRepo, messenger, texts)

	// Aggregator and sync
	pluggyClient := pluggy.NewClient(pluggy.Config{
		BaseURL:      cfg.Pluggy.BaseURL,
		ClientID:     cfg.Pluggy.ClientID,
		ClientSecret: cfg.Pluggy.ClientSecret,
		Timeout:      cfg.Pluggy.Timeout,
	})
	store := banksync.NewStore(connectionRepo, accountRepo, transactionRepo)
	syncService := banksync.NewService(pluggyClient, connectionService, store,
		banksync.WithLookbackMonths(cfg.Sync.LookbackMonths),
	)

	// A shared guard is only needed when several instances run the scheduler.
	var guard scheduler.InFlightGuard
	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Printf("Warning: Redis unavailable, using in-process sync guard: %v", err)
		} else {
			deps.Redis = client
			guard = redis.NewInFlight(client, cfg.Sync.JobTimeout)
			log.Printf("Using Redis sync guard at %s", cfg.Redis.Addr)
		}
	}

	// Goal auto-progress reacts to rows the database reports as inserted.
	dispatcher := transaction.NewDispatcher(goalService)

	deps.HealthHandler = httphandlers.NewHealthHandler(db)
	deps.JWT = auth.NewJWTWithTTL(cfg.JWT.Secret, cfg.JWT.TTL)
	deps.AuthHandler = httphandlers.NewAuthHandler(userService, deps.JWT, cfg.JWT.TTL)
	deps.UserHandler = httphandlers.NewUserHandler(userService)
	deps.FunctionsHandler = httphandlers.NewFunctionsHandler(pluggyClient, syncService, connectionService, accountService)
	deps.ConnectionHandler = httphandlers.NewConnectionHandler(connectionService, accountService)
	deps.AccountHandler = httphandlers.NewAccountHandler(accountService, transactionService)
	deps.GoalHandler = httphandlers.NewGoalHandler(goalService)
	deps.NotificationHandler = httphandlers.NewNotificationHandler(notificationService)

	deps.ConnectionService = connectionService
	deps.Trigger = scheduler.NewTrigger(connectionService, syncService, notificationService, guard)
	deps.Sessions = scheduler.NewSessions()
	deps.Listener = listener.NewTransactionListener(cfg.Database.ConnectionString(), dispatcher)

	return deps, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.Redis != nil {
		d.Redis.Close()
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
