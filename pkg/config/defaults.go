package config

const (
	defaultListen      = ":3000"
	defaultUpstream    = "http://localhost:5000"
	defaultIdleTimeout = "2m"
	defaultBodyLimitMB = 200

	defaultStorageDriver = "memory"

	defaultEventProvider = "none"
	defaultKafkaTopic    = "fair.relays"
	defaultRedisStream   = "fair:relays"

	defaultClientTarget = "http://localhost:3000"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Gateway: GatewayConfig{
			Listen:      defaultListen,
			Upstream:    defaultUpstream,
			IdleTimeout: defaultIdleTimeout,
			BodyLimitMB: defaultBodyLimitMB,
		},
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		EventStream: EventStreamConfig{
			Provider:    defaultEventProvider,
			KafkaTopic:  defaultKafkaTopic,
			RedisStream: defaultRedisStream,
		},
		Client: ClientConfig{
			Target: defaultClientTarget,
		},
	}
}
