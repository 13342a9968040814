package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent fair configuration stored as config.toml
// in the .fair/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Gateway     GatewayConfig     `toml:"gateway"`
	Storage     StorageConfig     `toml:"storage"`
	EventStream EventStreamConfig `toml:"eventstream"`
	Client      ClientConfig      `toml:"client"`
}

// GatewayConfig holds settings for the gateway server.
type GatewayConfig struct {
	Listen string `toml:"listen,omitempty"`

	// Upstream is the base URL of the FAIR backend.
	Upstream string `toml:"upstream,omitempty"`

	// IdleTimeout is a Go duration string bounding the wait for the next
	// upstream chunk while relaying a stream.
	IdleTimeout string `toml:"idle_timeout,omitempty"`

	// BodyLimitMB caps request bodies, uploads included.
	BodyLimitMB uint `toml:"body_limit_mb,omitempty"`
}

// StorageConfig selects where relay records are kept.
type StorageConfig struct {
	// Driver is one of "memory", "sqlite" or "postgres".
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventStreamConfig selects where relay completion events are published.
type EventStreamConfig struct {
	// Provider is one of "none", "kafka" or "redis".
	Provider string `toml:"provider,omitempty"`

	// KafkaBrokers is a comma separated broker list.
	KafkaBrokers string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string `toml:"kafka_topic,omitempty"`

	RedisAddr   string `toml:"redis_addr,omitempty"`
	RedisStream string `toml:"redis_stream,omitempty"`
}

// ClientConfig holds settings for CLI commands that talk to a running
// gateway (e.g. fair chat, fair sessions). Target is a full URL.
type ClientConfig struct {
	Target string `toml:"target,omitempty"`
}

// IdleTimeoutDuration parses Gateway.IdleTimeout. An empty value yields
// zero, which callers treat as "use the default".
func (g GatewayConfig) IdleTimeoutDuration() (time.Duration, error) {
	if g.IdleTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(g.IdleTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid gateway.idle_timeout: %w", err)
	}
	return d, nil
}

// Brokers splits EventStream.KafkaBrokers.
func (e EventStreamConfig) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(e.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// configKey maps a user-facing dotted key name to a getter and setter on *Config.
type configKey struct {
	name string
	get  func(c *Config) string
	set  func(c *Config, v string) error
}

func oneOf(key string, allowed ...string) func(string) error {
	return func(v string) error {
		for _, a := range allowed {
			if v == a {
				return nil
			}
		}
		return fmt.Errorf("invalid value for %s: %q (expected one of %s)", key, v, strings.Join(allowed, ", "))
	}
}

var (
	validStorageDriver = oneOf("storage.driver", "memory", "sqlite", "postgres")
	validEventProvider = oneOf("eventstream.provider", "none", "kafka", "redis")
)

// configKeys lists every supported config key in config.toml section order.
// Names use dotted notation matching the TOML section structure.
var configKeys = []configKey{
	{
		name: "gateway.listen",
		get:  func(c *Config) string { return c.Gateway.Listen },
		set:  func(c *Config, v string) error { c.Gateway.Listen = v; return nil },
	},
	{
		name: "gateway.upstream",
		get:  func(c *Config) string { return c.Gateway.Upstream },
		set:  func(c *Config, v string) error { c.Gateway.Upstream = v; return nil },
	},
	{
		name: "gateway.idle_timeout",
		get:  func(c *Config) string { return c.Gateway.IdleTimeout },
		set:  func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for gateway.idle_timeout: %w", err)
			}
			c.Gateway.IdleTimeout = v
			return nil
		},
	},
	{
		name: "gateway.body_limit_mb",
		get:  func(c *Config) string {
			if c.Gateway.BodyLimitMB == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Gateway.BodyLimitMB), 10)
		},
		set:  func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for gateway.body_limit_mb: %w", err)
			}
			c.Gateway.BodyLimitMB = uint(n)
			return nil
		},
	},
	{
		name: "storage.driver",
		get:  func(c *Config) string { return c.Storage.Driver },
		set:  func(c *Config, v string) error {
			if err := validStorageDriver(v); err != nil {
				return err
			}
			c.Storage.Driver = v
			return nil
		},
	},
	{
		name: "storage.sqlite_path",
		get:  func(c *Config) string { return c.Storage.SQLitePath },
		set:  func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	{
		name: "storage.postgres_dsn",
		get:  func(c *Config) string { return c.Storage.PostgresDSN },
		set:  func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	{
		name: "eventstream.provider",
		get:  func(c *Config) string { return c.EventStream.Provider },
		set:  func(c *Config, v string) error {
			if err := validEventProvider(v); err != nil {
				return err
			}
			c.EventStream.Provider = v
			return nil
		},
	},
	{
		name: "eventstream.kafka_brokers",
		get:  func(c *Config) string { return c.EventStream.KafkaBrokers },
		set:  func(c *Config, v string) error { c.EventStream.KafkaBrokers = v; return nil },
	},
	{
		name: "eventstream.kafka_topic",
		get:  func(c *Config) string { return c.EventStream.KafkaTopic },
		set:  func(c *Config, v string) error { c.EventStream.KafkaTopic = v; return nil },
	},
	{
		name: "eventstream.redis_addr",
		get:  func(c *Config) string { return c.EventStream.RedisAddr },
		set:  func(c *Config, v string) error { c.EventStream.RedisAddr = v; return nil },
	},
	{
		name: "eventstream.redis_stream",
		get:  func(c *Config) string { return c.EventStream.RedisStream },
		set:  func(c *Config, v string) error { c.EventStream.RedisStream = v; return nil },
	},
	{
		name: "client.target",
		get:  func(c *Config) string { return c.Client.Target },
		set:  func(c *Config, v string) error { c.Client.Target = v; return nil },
	},
}
