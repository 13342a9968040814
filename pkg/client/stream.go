package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/burnes-center/fair/pkg/relay"
	"github.com/burnes-center/fair/pkg/sse"
)

// relayIDHeader names the relay record of a streamed response.
const relayIDHeader = "X-Fair-Relay-Id"

// ErrTruncated is returned when a stream ends without its done frame.
var ErrTruncated = errors.New("stream ended before completion")

// StreamError is an error frame sent by the gateway after the stream began.
type StreamError struct {
	RelayID string
	Message string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("relay %s aborted: %s", e.RelayID, e.Message)
}

// StreamHandler receives a stream as it arrives. Both callbacks are
// optional and run on the calling goroutine.
type StreamHandler struct {
	OnText func(text string)
	OnMeta func(meta *relay.Meta)
}

// StreamResult is a fully received stream.
type StreamResult struct {
	RelayID string
	Text    string

	// Meta is the last session metadata frame, if any.
	Meta *relay.Meta
}

// SummarizeFiles names the local files uploaded for a summary.
type SummarizeFiles struct {
	Transcript        string
	Recording         string
	AdditionalContext []string
}

// Summarize uploads an interview and streams the generated summary. The
// new session's id arrives in the result's Meta.
func (c *Client) Summarize(ctx context.Context, userID string, files SummarizeFiles, h StreamHandler) (*StreamResult, error) {
	if files.Transcript == "" || files.Recording == "" {
		return nil, errors.New("transcript and recording files are required")
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeSummarizeForm(mw, files))
	}()

	return c.stream(ctx, c.endpoint("users", userID, "summarize"), mw.FormDataContentType(), pr, h)
}

func writeSummarizeForm(mw *multipart.Writer, files SummarizeFiles) error {
	parts := []struct{ field, path string }{
		{"transcript", files.Transcript},
		{"recording", files.Recording},
	}
	for _, p := range files.AdditionalContext {
		parts = append(parts, struct{ field, path string }{"additional_context", p})
	}

	for _, p := range parts {
		if err := addFile(mw, p.field, p.path); err != nil {
			return err
		}
	}
	return mw.Close()
}

func addFile(mw *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", field, err)
	}
	defer f.Close()

	part, err := mw.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("uploading %s: %w", field, err)
	}
	return nil
}

// Revise streams a revised summary for the session.
func (c *Client) Revise(ctx context.Context, sessionID, revision string, h StreamHandler) (*StreamResult, error) {
	body, err := json.Marshal(map[string]string{"revision": revision})
	if err != nil {
		return nil, err
	}
	return c.stream(ctx, c.endpoint("sessions", sessionID, "revise"), "application/json", strings.NewReader(string(body)), h)
}

// Chat sends a prompt and streams the assistant's reply. A zero chatID
// targets the session's default chat.
func (c *Client) Chat(ctx context.Context, sessionID, message string, chatID int64, h StreamHandler) (*StreamResult, error) {
	req := struct {
		Message string `json:"message"`
		ChatID  int64  `json:"chat_id,omitempty"`
	}{Message: message, ChatID: chatID}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return c.stream(ctx, c.endpoint("sessions", sessionID, "chat"), "application/json", strings.NewReader(string(body)), h)
}

// stream posts body and consumes the tagged frames of the answer.
func (c *Client) stream(ctx context.Context, target, contentType string, body io.Reader, h StreamHandler) (*StreamResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target+"?stream=sse", body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("opening gateway stream", zap.String("url", target))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request to gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp)
	}

	res := &StreamResult{RelayID: resp.Header.Get(relayIDHeader)}
	var text strings.Builder

	tr := sse.NewTeeReader(resp.Body, io.Discard)
	for {
		ev, err := tr.Next()
		if err != nil {
			res.Text = text.String()
			return res, fmt.Errorf("reading stream: %w", err)
		}
		if ev == nil {
			res.Text = text.String()
			return res, ErrTruncated
		}

		switch ev.Type {
		case sse.EventText:
			chunk, err := ev.Text()
			if err != nil {
				res.Text = text.String()
				return res, fmt.Errorf("reading stream: %w", err)
			}
			text.WriteString(chunk)
			if h.OnText != nil {
				h.OnText(chunk)
			}

		case sse.EventMeta:
			var meta relay.Meta
			if err := json.Unmarshal([]byte(ev.Data), &meta); err != nil {
				c.logger.Warn("skipping undecodable meta frame", zap.Error(err))
				continue
			}
			res.Meta = &meta
			if h.OnMeta != nil {
				h.OnMeta(&meta)
			}

		case sse.EventError:
			res.Text = text.String()
			return res, &StreamError{RelayID: res.RelayID, Message: ev.Data}

		case sse.EventDone:
			res.Text = text.String()
			if ev.ID != "" {
				res.RelayID = ev.ID
			}
			return res, nil
		}
	}
}
