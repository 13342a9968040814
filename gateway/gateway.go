// Package gateway provides the FAIR gateway: a fiber server that forwards
// the /api routes to the FAIR backend and relays the backend's streamed
// summaries, revisions and chat replies to the client as they arrive.
package gateway

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"go.uber.org/zap"

	"github.com/burnes-center/fair/gateway/header"
	"github.com/burnes-center/fair/gateway/worker"
	"github.com/burnes-center/fair/pkg/eventstream"
	"github.com/burnes-center/fair/pkg/storage"
)

var errShuttingDown = errors.New("gateway shutting down")

// Gateway sits between FAIR clients and the FAIR backend. JSON routes are
// forwarded as-is; streaming routes run through a relay and every finished
// relay is recorded asynchronously via the worker pool.
type Gateway struct {
	config        Config
	upstream      atomic.Pointer[string]
	driver        storage.Driver
	workerPool    *worker.Pool
	logger        *zap.Logger
	httpClient    *http.Client
	streamClient  *http.Client
	server        *fiber.App
	headerHandler *header.Handler

	// ctx is cancelled by Close and aborts every in-flight relay.
	ctx    context.Context
	cancel context.CancelFunc
	relays sync.WaitGroup
}

// New creates a new Gateway. The driver receives a record for every relay
// session; publisher may be nil.
func New(config Config, driver storage.Driver, publisher eventstream.Publisher, logger *zap.Logger) (*Gateway, error) {
	if driver == nil {
		return nil, errors.New("storage driver is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	upstream, err := normalizeUpstream(config.UpstreamURL)
	if err != nil {
		return nil, err
	}

	if config.BodyLimit <= 0 {
		config.BodyLimit = defaultBodyLimit
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaultRequestTimeout
	}
	if config.Name == "" {
		config.Name, _ = os.Hostname()
	}

	wp, err := worker.NewPool(&worker.Config{
		Driver:    driver,
		Publisher: publisher,
		Source:    eventstream.EventSource{Gateway: config.Name, Upstream: upstream},
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StreamRequestBody:     true,
		BodyLimit:             config.BodyLimit,
	})

	// Compression buffers the whole body, so relayed streams bypass it.
	app.Use(compress.New(compress.Config{
		Next: func(c *fiber.Ctx) bool {
			return isStreamingRoute(c.Method(), c.Path())
		},
	}))

	ctx, cancel := context.WithCancel(context.Background())

	g := &Gateway{
		config:        config,
		driver:        driver,
		workerPool:    wp,
		logger:        logger,
		server:        app,
		headerHandler: header.NewHandler(),
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		// Streams are bounded by the relay idle timeout instead of a
		// whole-request deadline; summaries of long interviews take minutes.
		streamClient: &http.Client{},
		ctx:          ctx,
		cancel:       cancel,
	}
	g.upstream.Store(&upstream)

	app.Get("/ping", g.handlePing)
	app.Get("/debug/vars", adaptor.HTTPHandler(expvar.Handler()))

	api := app.Group("/api")
	api.Post("/login", g.handleLogin)

	api.Get("/sessions", g.handleListSessions)
	api.Get("/sessions/:sessionId/load", g.handleLoadSession)
	api.Post("/sessions/:sessionId/revise", g.handleRevise)
	api.Post("/sessions/:sessionId/chat", g.handleChat)
	api.Delete("/sessions/:sessionId/delete", g.handleDeleteSession)
	api.Patch("/session/:sessionId", g.handleRenameSession)

	api.Get("/chats/:sessionId", g.handleListChats)
	api.Post("/chat/create/:sessionId", g.handleCreateChat)
	api.Get("/chat/:chatId", g.handleLoadChat)
	api.Delete("/chat/:chatId", g.handleDeleteChat)
	api.Patch("/chat/:chatId", g.handleRenameChat)

	api.Get("/users/:userId/sessions", g.handleUserSessions)
	api.Post("/users/:userId/summarize", g.handleSummarize)
	api.Post("/users/:userId/subscribe/:sessionId", g.handleSubscribe)
	api.Delete("/users/:userId/unsubscribe/:sessionId", g.handleUnsubscribe)
	api.Delete("/users/:userId", g.handleDeleteUser)

	api.Get("/relays", g.handleListRelays)
	api.Get("/relays/:relayId", g.handleGetRelay)

	return g, nil
}

// Run starts the gateway server on the configured listening address.
func (g *Gateway) Run() error {
	g.logger.Info("starting gateway",
		zap.String("listen", g.config.ListenAddr),
		zap.String("upstream", g.Upstream()),
	)

	return g.server.Listen(g.config.ListenAddr)
}

// RunWithListener starts the gateway server using the provided listener.
func (g *Gateway) RunWithListener(listener net.Listener) error {
	g.logger.Info("starting gateway",
		zap.String("listen", listener.Addr().String()),
		zap.String("upstream", g.Upstream()),
	)

	return g.server.Listener(listener)
}

// Close aborts in-flight relays, shuts the server down and waits for the
// worker pool to record every finished relay.
func (g *Gateway) Close() error {
	g.cancel()
	err := g.server.Shutdown()
	g.relays.Wait()
	g.workerPool.Close()
	return err
}

// Upstream returns the current backend base URL.
func (g *Gateway) Upstream() string {
	return *g.upstream.Load()
}

// UpdateUpstream swaps the backend base URL. Relays already streaming keep
// their connection; new requests use the new URL.
func (g *Gateway) UpdateUpstream(raw string) error {
	upstream, err := normalizeUpstream(raw)
	if err != nil {
		return err
	}

	if old := g.upstream.Swap(&upstream); *old != upstream {
		g.logger.Info("upstream changed",
			zap.String("from", *old),
			zap.String("to", upstream),
		)
	}
	return nil
}

// backendURL joins escaped path segments onto the current upstream.
func (g *Gateway) backendURL(segments ...string) string {
	var b strings.Builder
	b.WriteString(g.Upstream())
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

func normalizeUpstream(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parsing upstream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("upstream url %q must use http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("upstream url %q has no host", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// isStreamingRoute reports whether method and path address one of the
// relayed endpoints.
func isStreamingRoute(method, path string) bool {
	if method != fiber.MethodPost {
		return false
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 4 || parts[0] != "api" {
		return false
	}
	switch parts[1] {
	case "users":
		return parts[3] == "summarize"
	case "sessions":
		return parts[3] == "revise" || parts[3] == "chat"
	}
	return false
}
