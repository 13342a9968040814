// Package header filters headers between the legs of the fair gateway:
//
//	Client <--> Gateway <--> FAIR backend
//
// Each leg negotiates connection reuse and content encoding on its own, so
// hop-by-hop and encoding headers never cross the gateway.
package header

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RelayID is set on every streaming response. It names the relay record
// that can be fetched from /api/relays/:relayId once the stream ends.
const RelayID = "X-Fair-Relay-Id"

// Handler copies headers across the gateway, dropping the ones that only
// make sense on a single leg.
type Handler struct {
	skipRequest  map[string]struct{}
	skipResponse map[string]struct{}
}

// NewHandler creates a new header Handler.
func NewHandler() *Handler {
	return &Handler{
		skipRequest: set(
			"Connection",
			"Host",
			// Go's http.Transport adds its own Accept-Encoding and
			// decompresses transparently.
			"Accept-Encoding",
			// The gateway rebuilds every request body it forwards and sets
			// its own type and length.
			"Content-Type",
			"Content-Length",
			"Accept",
		),
		skipResponse: set(
			"Connection",
			"Transfer-Encoding",
			// The body read from upstream is already decompressed; the
			// compress middleware re-encodes for the client when allowed.
			"Content-Encoding",
			"Content-Length",
			RelayID,
		),
	}
}

func set(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[http.CanonicalHeaderKey(k)] = struct{}{}
	}
	return m
}

// SetUpstreamRequestHeaders copies the client's request headers onto the
// outgoing backend request.
func (h *Handler) SetUpstreamRequestHeaders(c *fiber.Ctx, req *http.Request) {
	c.Request().Header.VisitAll(func(key, value []byte) {
		k := http.CanonicalHeaderKey(string(key))
		if _, skip := h.skipRequest[k]; !skip {
			req.Header.Set(k, string(value))
		}
	})
}

// SetClientResponseHeaders copies the backend's response headers onto the
// client response.
func (h *Handler) SetClientResponseHeaders(c *fiber.Ctx, resp *http.Response) {
	for k, v := range resp.Header {
		if _, skip := h.skipResponse[http.CanonicalHeaderKey(k)]; !skip {
			c.Set(k, strings.Join(v, ", "))
		}
	}
}
