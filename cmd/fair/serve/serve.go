// Package servecmder provides the serve command that runs the gateway.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/burnes-center/fair/gateway"
	"github.com/burnes-center/fair/pkg/config"
	"github.com/burnes-center/fair/pkg/eventstream"
	"github.com/burnes-center/fair/pkg/eventstream/kafka"
	"github.com/burnes-center/fair/pkg/eventstream/nop"
	"github.com/burnes-center/fair/pkg/eventstream/redis"
	"github.com/burnes-center/fair/pkg/logger"
	"github.com/burnes-center/fair/pkg/storage"
	"github.com/burnes-center/fair/pkg/storage/inmemory"
	"github.com/burnes-center/fair/pkg/storage/postgres"
	"github.com/burnes-center/fair/pkg/storage/sqlite"
)

type serveCommander struct {
	flags flagValues
	debug bool

	viper  *viper.Viper
	cfg    *config.Config
	logger *zap.Logger
}

// flagValues receives the registered flags; the resolved values are read
// back through viper.
type flagValues struct {
	listen      string
	upstream    string
	idleTimeout string
	bodyLimit   uint

	storage     string
	sqlitePath  string
	postgresDSN string

	eventStream  string
	kafkaBrokers string
	kafkaTopic   string
	redisAddr    string
	redisStream  string
}

var serveFlags = []string{
	config.FlagListen,
	config.FlagUpstream,
	config.FlagIdleTimeout,
	config.FlagBodyLimit,
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagEventStream,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
	config.FlagRedisAddr,
	config.FlagRedisStream,
}

const serveLongDesc string = `Run the FAIR gateway.

The gateway sits in front of the FAIR backend. JSON routes are forwarded as
they are; summary, revision and chat answers are relayed chunk by chunk
while the session metadata the backend embeds in them is lifted out. Every
finished relay is recorded and optionally published to Kafka or Redis.

Settings come from flags, FAIR_* environment variables and config.toml, in
that order. Changing gateway.upstream in config.toml takes effect without a
restart.

Examples:
  fair serve --upstream http://localhost:5000
  fair serve --sqlite ./relays.db
  fair serve --eventstream kafka --kafka-brokers localhost:9092`

const serveShortDesc string = "Run the FAIR gateway"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlags)

			cmder.viper = v
			cmder.cfg = config.FromViper(v)
			cmder.cfg.Storage.Driver = impliedStorage(cmd, cmder.cfg.Storage)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	f := &cmder.flags
	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &f.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagUpstream, &f.upstream)
	config.AddStringFlag(cmd, config.Flags, config.FlagIdleTimeout, &f.idleTimeout)
	config.AddUintFlag(cmd, config.Flags, config.FlagBodyLimit, &f.bodyLimit)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorage, &f.storage)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &f.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &f.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventStream, &f.eventStream)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &f.kafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &f.kafkaTopic)
	config.AddStringFlag(cmd, config.Flags, config.FlagRedisAddr, &f.redisAddr)
	config.AddStringFlag(cmd, config.Flags, config.FlagRedisStream, &f.redisStream)

	return cmd
}

// impliedStorage lets --sqlite and --postgres select their driver unless
// --storage was given explicitly.
func impliedStorage(cmd *cobra.Command, s config.StorageConfig) string {
	if cmd.Flags().Changed(config.Flags[config.FlagStorage].Name) {
		return s.Driver
	}
	switch {
	case cmd.Flags().Changed(config.Flags[config.FlagSQLite].Name):
		return "sqlite"
	case cmd.Flags().Changed(config.Flags[config.FlagPostgres].Name):
		return "postgres"
	}
	return s.Driver
}

func (c *serveCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	idleTimeout, err := c.cfg.Gateway.IdleTimeoutDuration()
	if err != nil {
		return err
	}

	driver, err := newStorageDriver(ctx, c.cfg.Storage, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := newPublisher(c.cfg.EventStream, c.logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	g, err := gateway.New(gateway.Config{
		ListenAddr:  c.cfg.Gateway.Listen,
		UpstreamURL: c.cfg.Gateway.Upstream,
		IdleTimeout: idleTimeout,
		BodyLimit:   int(c.cfg.Gateway.BodyLimitMB) * 1024 * 1024,
	}, driver, publisher, c.logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	if config.Watch(c.viper, c.onConfigChange(g)) {
		c.logger.Debug("watching config file", zap.String("path", c.viper.ConfigFileUsed()))
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := g.Run(); err != nil {
			return fmt.Errorf("gateway error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		c.logger.Info("shutting down gateway")
		return g.Close()
	})

	err = eg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// onConfigChange swaps the upstream when config.toml changes. Other
// settings need a restart.
func (c *serveCommander) onConfigChange(g *gateway.Gateway) func(fsnotify.Event, *config.Config) {
	return func(e fsnotify.Event, cfg *config.Config) {
		if cfg.Gateway.Upstream == g.Upstream() {
			return
		}
		if err := g.UpdateUpstream(cfg.Gateway.Upstream); err != nil {
			c.logger.Warn("ignoring invalid upstream from config",
				zap.String("file", e.Name),
				zap.Error(err),
			)
		}
	}
}

func newStorageDriver(ctx context.Context, s config.StorageConfig, log *zap.Logger) (storage.Driver, error) {
	switch s.Driver {
	case "sqlite":
		if s.SQLitePath == "" {
			return nil, errors.New("sqlite storage requires --sqlite or storage.sqlite_path")
		}
		driver, err := sqlite.NewDriver(ctx, s.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite driver: %w", err)
		}
		log.Info("using SQLite storage", zap.String("path", s.SQLitePath))
		return driver, nil

	case "postgres":
		if s.PostgresDSN == "" {
			return nil, errors.New("postgres storage requires --postgres or storage.postgres_dsn")
		}
		driver, err := postgres.NewDriver(ctx, s.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL driver: %w", err)
		}
		log.Info("using PostgreSQL storage")
		return driver, nil

	case "", "memory":
		log.Info("using in-memory storage")
		return inmemory.NewDriver(), nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", s.Driver)
}

func newPublisher(e config.EventStreamConfig, log *zap.Logger) (eventstream.Publisher, error) {
	switch e.Provider {
	case "kafka":
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers:  e.Brokers(),
			Topic:    e.KafkaTopic,
			ClientID: "fair-gateway",
		})
		if err != nil {
			return nil, err
		}
		log.Info("publishing relay events to kafka", zap.Strings("brokers", e.Brokers()), zap.String("topic", e.KafkaTopic))
		return p, nil

	case "redis":
		p, err := redis.NewPublisher(redis.Config{Addr: e.RedisAddr, Stream: e.RedisStream})
		if err != nil {
			return nil, err
		}
		log.Info("publishing relay events to redis", zap.String("addr", e.RedisAddr), zap.String("stream", e.RedisStream))
		return p, nil

	case "", "none":
		return nop.NewPublisher(), nil
	}

	return nil, fmt.Errorf("unknown event stream provider %q", e.Provider)
}
