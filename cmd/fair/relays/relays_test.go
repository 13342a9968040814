package relayscmder_test

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/charmbracelet/x/ansi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	relayscmder "github.com/burnes-center/fair/cmd/fair/relays"
	"github.com/burnes-center/fair/pkg/client"
	"github.com/burnes-center/fair/pkg/storage"
	testutils "github.com/burnes-center/fair/pkg/utils/test"
)

const relayList = `{"count": 2, "relays": [
	{"id": "r-2", "endpoint": "chat", "session_id": "42", "state": "COMPLETE", "bytes_out": 128,
	 "started_at": "2026-03-01T12:00:00Z", "completed_at": "2026-03-01T12:00:02Z"},
	{"id": "r-1", "endpoint": "chat", "session_id": "42", "state": "ABORTED", "error": "upstream idle timeout",
	 "bytes_out": 12, "started_at": "2026-03-01T11:00:00Z", "completed_at": "2026-03-01T11:02:00Z"}
]}`

var _ = Describe("relays", func() {
	var (
		dir string
		gw  *testutils.FakeGateway
	)

	run := func(args ...string) (string, error) {
		out, err := testutils.RunCommand(relayscmder.NewRelaysCmd(), dir, "", args...)
		return ansi.Strip(out), err
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		gw = testutils.NewFakeGateway()
		DeferCleanup(gw.Close)
		testutils.UseGateway(dir, gw.URL)
		gw.Handle("GET /api/relays", testutils.JSONReply(http.StatusOK, relayList))
	})

	It("lists relays with their outcome", func() {
		out, err := run()
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(MatchRegexp(`✓\s+r-2\s+chat\s+42\s+128`))
		Expect(out).To(MatchRegexp(`✗\s+r-1\s+chat\s+42\s+12`))
		Expect(gw.Last().Query).To(BeEmpty())
	})

	It("passes the filters to the gateway", func() {
		_, err := run("--session", "42", "--endpoint", "chat", "-n", "5")
		Expect(err).NotTo(HaveOccurred())
		Expect(gw.Last().Query).To(Equal(url.Values{
			"session_id": {"42"},
			"endpoint":   {"chat"},
			"limit":      {"5"},
		}))
	})

	It("says so when nothing was recorded", func() {
		gw.Handle("GET /api/relays", testutils.JSONReply(http.StatusOK, `{"count":0,"relays":[]}`))

		out, err := run("--session", "99")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No relays recorded."))
	})

	It("prints one relay as JSON", func() {
		gw.Handle("GET /api/relays/r-1", testutils.JSONReply(http.StatusOK,
			`{"id":"r-1","endpoint":"summarize","session_id":"42","state":"COMPLETE","markers":1,"meta":{"id":42,"chat_id":7,"messages":[]}}`))

		out, err := run("show", "r-1")
		Expect(err).NotTo(HaveOccurred())

		var rec storage.Record
		Expect(json.Unmarshal([]byte(out), &rec)).To(Succeed())
		Expect(rec.ID).To(Equal("r-1"))
		Expect(rec.Markers).To(Equal(1))
		Expect(rec.Meta.ChatID).To(Equal(int64(7)))
	})

	It("reports an unknown relay", func() {
		_, err := run("show", "nope")
		Expect(client.IsNotFound(err)).To(BeTrue())
	})
})
