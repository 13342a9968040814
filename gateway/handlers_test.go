package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("JSON routes", func() {
	var (
		g       *Gateway
		backend *fakeBackend
		reply   http.HandlerFunc
	)

	BeforeEach(func() {
		reply = jsonReply(http.StatusOK, `{"ok":true}`)
		backend = newFakeBackend(func(w http.ResponseWriter, r *http.Request) { reply(w, r) })
		g, _ = newTestGateway(backend.URL)
	})

	AfterEach(func() {
		g.Close()
		backend.Close()
	})

	It("answers ping", func() {
		resp, body := do(g, httptest.NewRequest(http.MethodGet, "/ping", nil))
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(Equal(`"pong"`))
	})

	It("exposes relay counters under /debug/vars", func() {
		resp, body := do(g, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`"fair_gateway"`))
	})

	Describe("login", func() {
		It("forwards the body and keeps the backend status", func() {
			reply = jsonReply(http.StatusCreated, `{"message":"User created","user_id":4}`)

			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"ada"}`))
			req.Header.Set("Content-Type", "application/json")
			resp, body := do(g, req)

			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(body).To(MatchJSON(`{"message":"User created","user_id":4}`))

			last := backend.Last()
			Expect(last.Method).To(Equal(http.MethodPost))
			Expect(last.Path).To(Equal("/login"))
			Expect(last.ContentType).To(Equal("application/json"))
			Expect(last.Body).To(MatchJSON(`{"username":"ada"}`))
		})

		It("rejects malformed JSON without calling the backend", func() {
			resp, body := do(g, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":`)))
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(body).To(MatchJSON(`{"error":"Invalid JSON body"}`))
			Expect(backend.Requests()).To(BeEmpty())
		})
	})

	Describe("backend failures", func() {
		It("uses the route's fixed message when it has one", func() {
			reply = jsonReply(http.StatusInternalServerError, `{"error":"db locked"}`)

			resp, body := do(g, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(body).To(MatchJSON(`{"error":"Failed to fetch sessions from backend"}`))
			Expect(backend.Last().Path).To(Equal("/get_all_sessions"))
		})

		It("forwards the backend's message otherwise", func() {
			reply = jsonReply(http.StatusNotFound, `{"error":"Session not found"}`)

			resp, body := do(g, httptest.NewRequest(http.MethodGet, "/api/sessions/9/load", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(body).To(MatchJSON(`{"error":"Session not found"}`))
			Expect(backend.Last().Path).To(Equal("/load_session/9"))
		})

		It("answers 502 when the backend is unreachable", func() {
			backend.Close()

			resp, body := do(g, httptest.NewRequest(http.MethodGet, "/api/users/1/sessions", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
			Expect(body).To(MatchJSON(`{"error":"upstream request failed"}`))
		})

		It("answers 502 when the backend succeeds with a non-JSON body", func() {
			reply = func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("<html>")) }

			resp, body := do(g, httptest.NewRequest(http.MethodGet, "/api/chats/3", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
			Expect(body).To(MatchJSON(`{"error":"invalid upstream response"}`))
		})
	})

	Describe("sessions", func() {
		It("replies success on delete", func() {
			reply = jsonReply(http.StatusOK, `{"message":"Session deleted"}`)

			resp, body := do(g, httptest.NewRequest(http.MethodDelete, "/api/sessions/3/delete", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"success":true}`))
			Expect(backend.Last().Method).To(Equal(http.MethodDelete))
			Expect(backend.Last().Path).To(Equal("/delete_session/3"))
		})

		It("renames with the fixed failure message", func() {
			reply = jsonReply(http.StatusNotFound, `{"error":"nope"}`)

			req := httptest.NewRequest(http.MethodPatch, "/api/session/3", strings.NewReader(`{"name":"Interview 3"}`))
			resp, body := do(g, req)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(body).To(MatchJSON(`{"error":"Failed to rename session"}`))
			Expect(backend.Last().Path).To(Equal("/rename_session/3"))
			Expect(backend.Last().Body).To(MatchJSON(`{"name":"Interview 3"}`))
		})
	})

	Describe("chats", func() {
		It("normalizes legacy message strings when loading a chat", func() {
			reply = jsonReply(http.StatusOK, `{
				"chat_id": 7,
				"name": "default",
				"messages": ["You: hi", "Assistant: hello", {"role":"user","content":"ok"}, 12]
			}`)

			resp, body := do(g, httptest.NewRequest(http.MethodGet, "/api/chat/7", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{
				"chat_id": 7,
				"name": "default",
				"messages": [
					{"role":"user","content":"hi"},
					{"role":"assistant","content":"hello"},
					{"role":"user","content":"ok"},
					{"role":"unknown","content":"12"}
				]
			}`))
			Expect(backend.Last().Path).To(Equal("/load_chat/7"))
		})

		It("forwards only the name on rename", func() {
			req := httptest.NewRequest(http.MethodPatch, "/api/chat/7", strings.NewReader(`{"name":"Follow-ups","session_id":3}`))
			resp, _ := do(g, req)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(backend.Last().Path).To(Equal("/rename_chat/7"))
			Expect(backend.Last().Body).To(MatchJSON(`{"name":"Follow-ups"}`))
		})

		It("creates chats under a session", func() {
			reply = jsonReply(http.StatusOK, `{"chat_id":8,"name":"Follow-ups"}`)

			req := httptest.NewRequest(http.MethodPost, "/api/chat/create/3", strings.NewReader(`{"name":"Follow-ups"}`))
			resp, body := do(g, req)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"chat_id":8,"name":"Follow-ups"}`))
			Expect(backend.Last().Path).To(Equal("/create_chat/3"))
		})

		It("reports delete failures with the fixed message", func() {
			reply = jsonReply(http.StatusNotFound, `{"error":"Chat not found"}`)

			resp, body := do(g, httptest.NewRequest(http.MethodDelete, "/api/chat/7", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(body).To(MatchJSON(`{"error":"Failed to delete chat"}`))
		})
	})

	Describe("users", func() {
		It("subscribes a user to a session", func() {
			resp, _ := do(g, httptest.NewRequest(http.MethodPost, "/api/users/1/subscribe/3", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(backend.Last().Method).To(Equal(http.MethodPost))
			Expect(backend.Last().Path).To(Equal("/subscribe/1/3"))
		})

		It("replies success on unsubscribe", func() {
			resp, body := do(g, httptest.NewRequest(http.MethodDelete, "/api/users/1/unsubscribe/3", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"success":true}`))
			Expect(backend.Last().Path).To(Equal("/unsubscribe/1/3"))
		})

		It("deletes a user", func() {
			reply = jsonReply(http.StatusOK, `{"message":"User deleted"}`)

			resp, body := do(g, httptest.NewRequest(http.MethodDelete, "/api/users/1", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"message":"User deleted"}`))
			Expect(backend.Last().Path).To(Equal("/delete_user/1"))
		})

		It("lists a user's sessions", func() {
			reply = jsonReply(http.StatusOK, `[{"id":3,"name":"Interview 3"}]`)

			resp, body := do(g, httptest.NewRequest(http.MethodGet, "/api/users/1/sessions", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var sessions []map[string]any
			Expect(json.Unmarshal([]byte(body), &sessions)).To(Succeed())
			Expect(sessions).To(HaveLen(1))
			Expect(backend.Last().Path).To(Equal("/get_sessions/1"))
		})
	})

	It("follows an upstream swap for new requests", func() {
		other := newFakeBackend(jsonReply(http.StatusOK, `[]`))
		defer other.Close()

		Expect(g.UpdateUpstream(other.URL)).To(Succeed())
		resp, _ := do(g, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(other.Requests()).To(HaveLen(1))
		Expect(backend.Requests()).To(BeEmpty())
	})
})
