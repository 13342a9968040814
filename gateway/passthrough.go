package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/burnes-center/fair/pkg/llm"
)

// backendCall is one non-streaming request to the FAIR backend.
type backendCall struct {
	method string
	url    string
	body   []byte

	// errMessage replaces the backend's error text when it answers with a
	// non-2xx status. Empty forwards the backend's own message.
	errMessage string

	// reply, when set, is sent instead of the backend's success body.
	reply any

	// transform rewrites the backend's success body.
	transform func([]byte) ([]byte, error)
}

// forward performs call and writes the outcome to the client.
func (g *Gateway) forward(c *fiber.Ctx, call backendCall) error {
	ctx, cancel := context.WithTimeout(c.Context(), g.config.RequestTimeout)
	defer cancel()

	var reqBody io.Reader
	if call.body != nil {
		reqBody = bytes.NewReader(call.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, call.method, call.url, reqBody)
	if err != nil {
		g.logger.Error("failed to create upstream request", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "internal error"})
	}

	g.headerHandler.SetUpstreamRequestHeaders(c, httpReq)
	httpReq.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if call.body != nil {
		httpReq.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	g.logger.Debug("forwarding request to upstream",
		zap.String("method", call.method),
		zap.String("url", call.url),
	)

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		stats.Add(statUpstreamErrors, 1)
		g.logger.Error("upstream request failed", zap.String("url", call.url), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream request failed"})
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		stats.Add(statUpstreamErrors, 1)
		g.logger.Error("failed to read upstream response", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "failed to read upstream response"})
	}

	if !isSuccess(httpResp.StatusCode) {
		return g.upstreamError(c, httpResp.StatusCode, respBody, call.errMessage)
	}

	if call.reply != nil {
		return c.Status(fiber.StatusOK).JSON(call.reply)
	}

	if !json.Valid(respBody) {
		g.logger.Error("upstream returned invalid JSON",
			zap.String("url", call.url),
			zap.Int("status", httpResp.StatusCode),
		)
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "invalid upstream response"})
	}

	if call.transform != nil {
		out, err := call.transform(respBody)
		if err != nil {
			g.logger.Warn("failed to rewrite upstream response, forwarding as-is", zap.Error(err))
		} else {
			respBody = out
		}
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(httpResp.StatusCode).Send(respBody)
}

// upstreamError answers with the backend's status and a JSON error body.
// Without a fixed message the backend's own error text is used: the
// "error" field when it sent a JSON error object, otherwise the raw body.
func (g *Gateway) upstreamError(c *fiber.Ctx, status int, body []byte, message string) error {
	g.logger.Warn("upstream returned error",
		zap.Int("status", status),
		zap.String("body", string(body)),
	)

	if message == "" {
		message = backendMessage(body)
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return c.Status(status).JSON(llm.ErrorResponse{Error: message})
}

func backendMessage(body []byte) string {
	var e llm.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// badRequest answers 400 with message.
func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: message})
}

const msgInvalidJSON = "Invalid JSON body"

// jsonObject decodes the request body as a JSON object.
func jsonObject(c *fiber.Ctx) (map[string]json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// truthy reports whether raw holds a value other than null, false, zero or
// the empty string.
func truthy(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

// param returns a trimmed route parameter.
func param(c *fiber.Ctx, key string) string {
	return strings.TrimSpace(c.Params(key))
}
