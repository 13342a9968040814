package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/burnes-center/fair/gateway/header"
	"github.com/burnes-center/fair/pkg/config"
	"github.com/burnes-center/fair/pkg/llm"
	"github.com/burnes-center/fair/pkg/relay"
	"github.com/burnes-center/fair/pkg/sse"
)

// GatewayCall is one request received by a FakeGateway.
type GatewayCall struct {
	Method      string
	Path        string
	Query       url.Values
	ContentType string
	Body        []byte
}

// FakeGateway stands in for the fair gateway in CLI tests. Routes are keyed
// "METHOD /path"; anything unrouted answers 404 with a JSON error.
type FakeGateway struct {
	*httptest.Server

	mu     sync.Mutex
	calls  []GatewayCall
	routes map[string]http.HandlerFunc
}

func NewFakeGateway() *FakeGateway {
	g := &FakeGateway{routes: make(map[string]http.HandlerFunc)}
	g.Server = httptest.NewServer(http.HandlerFunc(g.serve))
	return g
}

func (g *FakeGateway) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	route := r.Method + " " + r.URL.Path

	g.mu.Lock()
	g.calls = append(g.calls, GatewayCall{
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       r.URL.Query(),
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
	})
	h, ok := g.routes[route]
	g.mu.Unlock()

	if !ok {
		JSONReply(http.StatusNotFound, `{"error":"Not found"}`)(w, r)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	h(w, r)
}

// Handle routes "METHOD /path" to h.
func (g *FakeGateway) Handle(route string, h http.HandlerFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.routes[route] = h
}

// Calls returns every request received so far.
func (g *FakeGateway) Calls() []GatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]GatewayCall(nil), g.calls...)
}

// Last returns the most recent request.
func (g *FakeGateway) Last() GatewayCall {
	calls := g.Calls()
	Expect(calls).NotTo(BeEmpty())
	return calls[len(calls)-1]
}

// JSONReply answers with status and a raw JSON body.
func JSONReply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// StreamReply answers like a completed tagged relay: one text frame per
// chunk, a meta frame when meta is set, then done.
func StreamReply(relayID string, meta *relay.Meta, chunks ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		sw := startStream(w, relayID, chunks)
		if meta != nil {
			data, err := json.Marshal(meta)
			Expect(err).NotTo(HaveOccurred())
			Expect(sw.WriteEvent(sse.Event{Type: sse.EventMeta, Data: string(data)})).To(Succeed())
		}
		Expect(sw.WriteEvent(sse.Event{Type: sse.EventDone, ID: relayID, Data: relayID})).To(Succeed())
	}
}

// InterruptedReply answers like an aborted tagged relay: the chunks, then
// an error frame carrying message.
func InterruptedReply(relayID, message string, chunks ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		sw := startStream(w, relayID, chunks)
		Expect(sw.WriteEvent(sse.Event{Type: sse.EventError, ID: relayID, Data: message})).To(Succeed())
	}
}

func startStream(w http.ResponseWriter, relayID string, chunks []string) *sse.Writer {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set(header.RelayID, relayID)
	w.WriteHeader(http.StatusOK)

	sw := sse.NewWriter(w)
	for _, c := range chunks {
		Expect(sw.WriteEvent(sse.TextEvent([]byte(c)))).To(Succeed())
	}
	return sw
}

// DecodeJSON unmarshals a recorded request body.
func (c GatewayCall) DecodeJSON(v any) {
	Expect(json.Unmarshal(c.Body, v)).To(Succeed(), string(c.Body))
}

// ChatMeta builds the metadata a chat or summary reply carries.
func ChatMeta(sessionID, chatID int64, prompt, answer string) *relay.Meta {
	return &relay.Meta{
		SessionID: sessionID,
		ChatID:    chatID,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: prompt},
			{Role: llm.RoleAssistant, Content: answer},
		},
	}
}

// UseGateway points the client commands run against dir at target.
func UseGateway(dir, target string) {
	c, err := config.NewConfiger(dir)
	Expect(err).NotTo(HaveOccurred())
	Expect(c.SetConfigValue("client.target", target)).To(Succeed())
}

// RunCommand executes cmd with args the way the root command would, with
// the global flags pointing at dir, and returns everything it printed.
func RunCommand(cmd *cobra.Command, dir, stdin string, args ...string) (string, error) {
	cmd.PersistentFlags().String("config-dir", dir, "")
	cmd.PersistentFlags().Bool("debug", false, "")

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}
