package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	coreconfig "github.com/chimchimster/balance-bot/core/config"
	coredatabase "github.com/chimchimster/balance-bot/core/database"
	coreredis "github.com/chimchimster/balance-bot/core/redis"
	"github.com/chimchimster/balance-bot/core/logger"
)

// Options control the generic bootstrap pipeline.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	Redis    coreredis.Config

	LoggerInit   func(*coreconfig.Config) error
	Connect      func(coredatabase.Config) (*sqlx.DB, error)
	Migrate      func(coredatabase.Config) error
	ConnectRedis func(coreredis.Config) (*goredis.Client, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB    *sqlx.DB
	Redis *goredis.Client
}

// Run initializes the logger, connects to the database, applies migrations
// and connects to Redis, in that order. A failure closes whatever was
// already opened.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(opts.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	connectRedis := opts.ConnectRedis
	if connectRedis == nil {
		connectRedis = coreredis.Connect
	}
	rdb, err := connectRedis(opts.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: redis initialization failed: %w", err)
	}

	return &Result{DB: db, Redis: rdb}, nil
}
