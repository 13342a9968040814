package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/burnes-center/fair/gateway/header"
	"github.com/burnes-center/fair/gateway/worker"
	"github.com/burnes-center/fair/pkg/llm"
	"github.com/burnes-center/fair/pkg/relay"
	"github.com/burnes-center/fair/pkg/sse"
	"github.com/burnes-center/fair/pkg/storage"
)

// streamCall is one streaming request to the FAIR backend.
type streamCall struct {
	endpoint    string
	userID      string
	sessionID   string
	url         string
	contentType string
	body        io.Reader
}

func (g *Gateway) handleSummarize(c *fiber.Ctx) error {
	userID := param(c, "userId")
	if userID == "" {
		return badRequest(c, msgUserIDRequired)
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File["transcript"]) == 0 || len(form.File["recording"]) == 0 {
		return badRequest(c, msgSummarizeFilesNeeded)
	}

	body := encodeForm(form, g.logger)
	defer body.stop()

	return g.stream(c, streamCall{
		endpoint:    storage.EndpointSummarize,
		userID:      userID,
		url:         g.backendURL("summarize", userID),
		contentType: body.contentType,
		body:        body,
	})
}

// handleRevise forwards only the revision instruction.
func (g *Gateway) handleRevise(c *fiber.Ctx) error {
	sessionID := param(c, "sessionId")
	if sessionID == "" {
		return badRequest(c, msgSessionIDRequired)
	}
	obj, ok := jsonObject(c)
	if !ok {
		return badRequest(c, msgInvalidJSON)
	}
	if !truthy(obj["revision"]) {
		return badRequest(c, msgRevisionRequired)
	}

	body, err := json.Marshal(map[string]json.RawMessage{"revision": obj["revision"]})
	if err != nil {
		return badRequest(c, msgInvalidJSON)
	}

	return g.stream(c, streamCall{
		endpoint:    storage.EndpointRevise,
		sessionID:   sessionID,
		url:         g.backendURL("revise", sessionID),
		contentType: fiber.MIMEApplicationJSON,
		body:        bytes.NewReader(body),
	})
}

// handleChat forwards the prompt and, when given, the chat thread it
// belongs to. Without chat_id the backend uses the session's default chat.
func (g *Gateway) handleChat(c *fiber.Ctx) error {
	sessionID := param(c, "sessionId")
	if sessionID == "" {
		return badRequest(c, msgSessionIDRequired)
	}
	obj, ok := jsonObject(c)
	if !ok {
		return badRequest(c, msgInvalidJSON)
	}
	if !truthy(obj["message"]) {
		return badRequest(c, msgMessageRequired)
	}

	fwd := map[string]json.RawMessage{"message": obj["message"]}
	if truthy(obj["chat_id"]) {
		fwd["chat_id"] = obj["chat_id"]
	}
	body, err := json.Marshal(fwd)
	if err != nil {
		return badRequest(c, msgInvalidJSON)
	}

	return g.stream(c, streamCall{
		endpoint:    storage.EndpointChat,
		sessionID:   sessionID,
		url:         g.backendURL("chat", sessionID),
		contentType: fiber.MIMEApplicationJSON,
		body:        bytes.NewReader(body),
	})
}

// stream makes the backend request and, once the backend has answered
// successfully, relays its body to the client. Any failure before that
// point is a JSON error and no relay starts.
func (g *Gateway) stream(c *fiber.Ctx, call streamCall) error {
	// context.Background() rather than c.Context(): fasthttp recycles the
	// RequestCtx when the handler returns, while the relay keeps reading
	// the backend body from its own goroutine.
	httpReq, err := http.NewRequestWithContext(context.Background(), http.MethodPost, call.url, call.body)
	if err != nil {
		g.logger.Error("failed to create upstream request", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "internal error"})
	}

	g.headerHandler.SetUpstreamRequestHeaders(c, httpReq)
	httpReq.Header.Set(fiber.HeaderContentType, call.contentType)

	g.logger.Debug("forwarding streaming request to upstream",
		zap.String("endpoint", call.endpoint),
		zap.String("url", call.url),
	)

	httpResp, err := g.streamClient.Do(httpReq)
	if err != nil {
		stats.Add(statUpstreamErrors, 1)
		g.logger.Error("upstream request failed", zap.String("url", call.url), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream request failed"})
	}
	if !isSuccess(httpResp.StatusCode) {
		respBody, _ := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		return g.upstreamError(c, httpResp.StatusCode, respBody, "")
	}

	rec := &storage.Record{
		ID:        uuid.NewString(),
		Endpoint:  call.endpoint,
		UserID:    call.userID,
		SessionID: call.sessionID,
	}
	tagged := wantsEvents(c)

	g.headerHandler.SetClientResponseHeaders(c, httpResp)
	c.Set(header.RelayID, rec.ID)
	switch {
	case tagged:
		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
	case httpResp.Header.Get(fiber.HeaderContentType) == "":
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	}
	c.Status(fiber.StatusOK)

	// io.Pipe + SetBodyStream: pw.Write blocks until fasthttp has flushed
	// the previous chunk to the socket, which gives per-chunk delivery and
	// backpressure from a slow client all the way to the backend read.
	pr, pw := io.Pipe()
	g.relays.Add(1)
	go g.pump(httpResp, pr, pw, rec, tagged)

	// Unknown size (-1) selects chunked transfer encoding.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

// pump runs one relay session and queues its record.
func (g *Gateway) pump(httpResp *http.Response, pr *io.PipeReader, pw *io.PipeWriter, rec *storage.Record, tagged bool) {
	defer g.relays.Done()
	defer httpResp.Body.Close()

	// Unblocks a relay stuck writing to a client that stopped reading.
	stop := context.AfterFunc(g.ctx, func() { pr.CloseWithError(errShuttingDown) })
	defer stop()

	var (
		sink relay.Sink = pw
		ev   *eventSink
		last *relay.Meta
	)
	if tagged {
		ev = &eventSink{w: sse.NewWriter(pw), pw: pw, relayID: rec.ID}
		sink = ev
	}

	logger := g.logger.With(zap.String("relay_id", rec.ID), zap.String("endpoint", rec.Endpoint))
	r := relay.New(relay.Config{
		ScanMarkers: true,
		IdleTimeout: g.config.IdleTimeout,
		Logger:      logger,
		OnMeta: func(meta *relay.Meta) error {
			last = meta
			if ev != nil {
				return ev.writeMeta(meta)
			}
			return nil
		},
	})

	stats.Add(statRelaysStarted, 1)
	res := r.Run(g.ctx, httpResp.Body, sink)

	rec.State = string(res.State)
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	rec.BytesIn = res.BytesIn
	rec.BytesOut = res.BytesOut
	rec.Chunks = res.Chunks
	rec.Markers = res.Markers
	rec.Malformed = res.Malformed
	rec.Meta = last
	rec.StartedAt = res.StartedAt.UTC()
	rec.CompletedAt = res.CompletedAt.UTC()
	if rec.SessionID == "" && last != nil {
		// summarize learns its new session id from the trailing marker
		rec.SessionID = strconv.FormatInt(last.SessionID, 10)
	}

	if res.State == relay.StateComplete {
		stats.Add(statRelaysCompleted, 1)
	} else {
		stats.Add(statRelaysAborted, 1)
	}
	stats.Add(statBytesRelayed, res.BytesOut)
	stats.Add(statMarkers, int64(res.Markers))
	stats.Add(statMalformed, int64(res.Malformed))

	logger.Debug("relay finished",
		zap.String("state", rec.State),
		zap.Int64("bytes_in", res.BytesIn),
		zap.Int64("bytes_out", res.BytesOut),
		zap.Int("chunks", res.Chunks),
		zap.Duration("duration", res.CompletedAt.Sub(res.StartedAt)),
	)

	if !g.workerPool.Enqueue(worker.Job{Record: rec}) {
		stats.Add(statJobsDropped, 1)
	}
}

// wantsEvents reports whether the client asked for tagged SSE frames.
func wantsEvents(c *fiber.Ctx) bool {
	return c.Query("stream") == "sse" || strings.Contains(c.Get(fiber.HeaderAccept), "text/event-stream")
}

// eventSink frames relay output as SSE events: text for visible chunks,
// meta for extracted markers, then done or error.
type eventSink struct {
	w       *sse.Writer
	pw      *io.PipeWriter
	relayID string
}

func (s *eventSink) Write(p []byte) (int, error) {
	if err := s.w.WriteEvent(sse.TextEvent(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *eventSink) writeMeta(meta *relay.Meta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding meta: %w", err)
	}
	return s.w.WriteEvent(sse.Event{Type: sse.EventMeta, Data: string(data)})
}

func (s *eventSink) Close() error {
	if err := s.w.WriteEvent(sse.Event{Type: sse.EventDone, ID: s.relayID, Data: s.relayID}); err != nil {
		return s.pw.CloseWithError(err)
	}
	return s.pw.Close()
}

// CloseWithError emits a best-effort error frame, then truncates the body
// so the client cannot mistake the stream for a complete one.
func (s *eventSink) CloseWithError(cause error) error {
	_ = s.w.WriteEvent(sse.Event{Type: sse.EventError, ID: s.relayID, Data: cause.Error()})
	return s.pw.CloseWithError(cause)
}

// formBody is a multipart form being re-encoded into a pipe while the
// backend reads it, so an upload is never held in memory a second time.
type formBody struct {
	*io.PipeReader
	contentType string
	done        chan struct{}
}

// encodeForm rebuilds a parsed multipart form for the backend, keeping
// every value and file part with its original headers. The summarize
// endpoint reads transcript, recording and any additional_context files.
// A write failure surfaces as a read error on the request body.
func encodeForm(form *multipart.Form, logger *zap.Logger) *formBody {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	b := &formBody{PipeReader: pr, contentType: mw.FormDataContentType(), done: make(chan struct{})}

	go func() {
		defer close(b.done)
		err := writeForm(mw, form)
		if err != nil && !errors.Is(err, io.ErrClosedPipe) {
			logger.Error("failed to rebuild summarize form", zap.Error(err))
		}
		pw.CloseWithError(err)
	}()

	return b
}

// stop abandons whatever the backend did not read and waits for the
// encoder. The form's files belong to the inbound request and must not be
// touched after the handler returns.
func (b *formBody) stop() {
	b.Close()
	<-b.done
}

func writeForm(mw *multipart.Writer, form *multipart.Form) error {
	for _, name := range slices.Sorted(maps.Keys(form.Value)) {
		for _, v := range form.Value[name] {
			if err := mw.WriteField(name, v); err != nil {
				return fmt.Errorf("writing field %s: %w", name, err)
			}
		}
	}

	for _, name := range slices.Sorted(maps.Keys(form.File)) {
		for _, fh := range form.File[name] {
			if err := copyPart(mw, fh); err != nil {
				return fmt.Errorf("writing file %s: %w", name, err)
			}
		}
	}

	return mw.Close()
}

func copyPart(mw *multipart.Writer, fh *multipart.FileHeader) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := mw.CreatePart(fh.Header)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}
