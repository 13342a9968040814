package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/burnes-center/fair/pkg/dotdir"
)

// EnvPrefix prefixes every environment override, e.g. FAIR_GATEWAY_UPSTREAM.
const EnvPrefix = "FAIR"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the FAIR_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (FAIR_GATEWAY_LISTEN, FAIR_STORAGE_DRIVER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: FAIR_GATEWAY_UPSTREAM, FAIR_STORAGE_SQLITE_PATH, etc.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper resolves every config key through v's precedence chain.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Gateway: GatewayConfig{
			Listen:      v.GetString("gateway.listen"),
			Upstream:    v.GetString("gateway.upstream"),
			IdleTimeout: v.GetString("gateway.idle_timeout"),
			BodyLimitMB: v.GetUint("gateway.body_limit_mb"),
		},
		Storage: StorageConfig{
			Driver:      v.GetString("storage.driver"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		EventStream: EventStreamConfig{
			Provider:     v.GetString("eventstream.provider"),
			KafkaBrokers: v.GetString("eventstream.kafka_brokers"),
			KafkaTopic:   v.GetString("eventstream.kafka_topic"),
			RedisAddr:    v.GetString("eventstream.redis_addr"),
			RedisStream:  v.GetString("eventstream.redis_stream"),
		},
		Client: ClientConfig{
			Target: v.GetString("client.target"),
		},
	}
}

// Watch re-reads the config file whenever it changes on disk and hands the
// freshly resolved Config to onChange. It is a no-op when no config file was
// found by InitViper.
func Watch(v *viper.Viper, onChange func(fsnotify.Event, *Config)) bool {
	if v.ConfigFileUsed() == "" {
		return false
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(e, FromViper(v))
	})
	v.WatchConfig()
	return true
}

// setViperDefaults registers NewDefaultConfig() under every dotted key, so
// defaults.go stays the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)
	for _, k := range configKeys {
		v.SetDefault(k.name, k.get(d))
	}
}
