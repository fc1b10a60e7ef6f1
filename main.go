// main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gym-backoffice/cmd"
	"gym-backoffice/internal/data/repository"
	"gym-backoffice/internal/usecase"
	"gym-backoffice/internal/wire"
	"gym-backoffice/pkg/database"
	"gym-backoffice/pkg/denylist"
	"gym-backoffice/pkg/notify"
	"gym-backoffice/pkg/token"
	"gym-backoffice/pkg/utils"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("env", config.App.Env),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = database.Migrate(migrateCtx, db)
	cancel()
	if err != nil {
		logger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	logger.Info("Database connected successfully")

	issuer, err := token.NewIssuer(token.Config{
		AccessSecret:  config.JWT.AccessSecret,
		RefreshSecret: config.JWT.RefreshSecret,
		Issuer:        config.JWT.Issuer,
		RefreshTTL:    config.JWT.RefreshTTL,
	})
	if err != nil {
		logger.Fatal("Failed to create token issuer", zap.Error(err))
	}

	denyList, closeDenyList := newDenyList(ctx, config.Redis, logger)
	defer closeDenyList()

	deps := usecase.Deps{
		Repo:     repository.NewRepository(db, logger),
		Issuer:   issuer,
		Notifier: newNotifier(config, logger),
		DenyList: denyList,
		Clock:    clockwork.NewRealClock(),
	}

	// Wire all dependencies
	app := wire.Wiring(deps, config, logger)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("HTTP server stopped with error", zap.Error(err))
		return
	}

	logger.Info("Server stopped")
}

// newNotifier routes SMS through Twilio and e-mail through SMTP when they are
// configured, and to the log otherwise.
func newNotifier(config *utils.Config, logger *zap.Logger) notify.Sender {
	fallback := notify.NewLogSender(logger)
	dispatcher := notify.NewDispatcher(logger)

	if config.SMS.AccountSID != "" {
		dispatcher.Register(notify.ChannelSMS, notify.NewTwilioSender(config.SMS.AccountSID, config.SMS.AuthToken, config.SMS.From))
	} else {
		logger.Warn("TWILIO_ACCOUNT_SID not set, SMS will be logged only")
		dispatcher.Register(notify.ChannelSMS, fallback)
	}

	if config.Email.Host != "" {
		dispatcher.Register(notify.ChannelEmail, notify.NewSMTPSender(
			config.Email.Host, config.Email.Port, config.Email.User, config.Email.Password, config.Email.From,
		))
	} else {
		logger.Warn("SMTP_HOST not set, e-mail will be logged only")
		dispatcher.Register(notify.ChannelEmail, fallback)
	}

	return dispatcher
}

// newDenyList uses Redis when REDIS_ADDR is set so revocations are shared
// between instances; otherwise it keeps them in process.
func newDenyList(ctx context.Context, config utils.RedisConfig, logger *zap.Logger) (denylist.DenyList, func()) {
	if config.Addr == "" {
		memory := denylist.NewMemory()
		logger.Info("Using in-memory token deny-list")
		return memory, memory.Stop
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Fatal("Failed to connect to redis", zap.String("addr", config.Addr), zap.Error(err))
	}

	logger.Info("Using redis token deny-list", zap.String("addr", config.Addr))
	return denylist.NewRedis(client), func() { _ = client.Close() }
}
