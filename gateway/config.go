package gateway

import "time"

// Config is the gateway server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":3000")
	ListenAddr string

	// UpstreamURL is the FAIR backend base URL (e.g., "http://localhost:5000")
	UpstreamURL string

	// Name identifies this gateway in published relay events. Defaults to
	// the host name.
	Name string

	// IdleTimeout aborts a relay when the backend sends nothing for this
	// long. Zero selects relay.DefaultIdleTimeout, negative disables it.
	IdleTimeout time.Duration

	// BodyLimit caps request bodies in bytes. Uploads carry full interview
	// recordings, so this is well above fiber's 4 MiB default.
	BodyLimit int

	// RequestTimeout bounds non-streaming backend calls.
	RequestTimeout time.Duration
}

const (
	defaultBodyLimit      = 200 * 1024 * 1024
	defaultRequestTimeout = 5 * time.Minute
)
