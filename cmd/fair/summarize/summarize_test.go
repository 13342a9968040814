package summarizecmder_test

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/charmbracelet/x/ansi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/burnes-center/fair/cmd/fair/cmdutil"
	summarizecmder "github.com/burnes-center/fair/cmd/fair/summarize"
	"github.com/burnes-center/fair/pkg/dotdir"
	testutils "github.com/burnes-center/fair/pkg/utils/test"
)

var _ = Describe("summarize", func() {
	var (
		dir   string
		files string
		gw    *testutils.FakeGateway
	)

	writeFile := func(name, contents string) string {
		path := filepath.Join(files, name)
		Expect(os.WriteFile(path, []byte(contents), 0o600)).To(Succeed())
		return path
	}

	run := func(args ...string) (string, error) {
		out, err := testutils.RunCommand(summarizecmder.NewSummarizeCmd(), dir, "", args...)
		return ansi.Strip(out), err
	}

	state := func() *dotdir.State {
		s, err := dotdir.NewManager().LoadState(dir)
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		files = GinkgoT().TempDir()
		gw = testutils.NewFakeGateway()
		DeferCleanup(gw.Close)
		testutils.UseGateway(dir, gw.URL)
		Expect(dotdir.NewManager().SaveState(&dotdir.State{UserID: "17", Username: "ada"}, dir)).To(Succeed())
	})

	It("prints the summary and makes its session current", func() {
		gw.Handle("POST /api/users/17/summarize", testutils.StreamReply("r-1",
			testutils.ChatMeta(42, 7, "summarize", "## Summary"),
			"## Summary\n", "The pilot went well.",
		))

		out, err := run(
			"-T", writeFile("t.vtt", "transcript"),
			"-R", writeFile("r.mp4", "recording"),
			"-c", writeFile("notes.md", "notes"),
		)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("## Summary\nThe pilot went well.\n"))
		Expect(out).To(ContainSubstring("Now working in session 42"))
		Expect(out).To(ContainSubstring("relay r-1"))

		Expect(state()).To(Equal(&dotdir.State{UserID: "17", Username: "ada", SessionID: 42, ChatID: 7}))
	})

	It("uploads every file as its own form part", func() {
		gw.Handle("POST /api/users/17/summarize", testutils.StreamReply("r-1", testutils.ChatMeta(42, 7, "summarize", "ok"), "ok"))

		_, err := run(
			"-T", writeFile("t.vtt", "transcript"),
			"-R", writeFile("r.mp4", "recording"),
			"-c", writeFile("a.md", "first"),
			"-c", writeFile("b.md", "second"),
		)
		Expect(err).NotTo(HaveOccurred())

		call := gw.Last()
		Expect(call.Query.Get("stream")).To(Equal("sse"))

		_, params, err := mime.ParseMediaType(call.ContentType)
		Expect(err).NotTo(HaveOccurred())
		form, err := multipart.NewReader(bytes.NewReader(call.Body), params["boundary"]).ReadForm(1 << 20)
		Expect(err).NotTo(HaveOccurred())
		Expect(form.File["transcript"]).To(HaveLen(1))
		Expect(form.File["recording"]).To(HaveLen(1))
		Expect(form.File["additional_context"]).To(HaveLen(2))

		f, err := form.File["additional_context"][1].Open()
		Expect(err).NotTo(HaveOccurred())
		data, _ := io.ReadAll(f)
		Expect(string(data)).To(Equal("second"))
	})

	It("fails when the summary carries no session", func() {
		gw.Handle("POST /api/users/17/summarize", testutils.StreamReply("r-1", nil, "text only"))

		_, err := run("-T", writeFile("t.vtt", "t"), "-R", writeFile("r.mp4", "r"))
		Expect(err).To(MatchError("the summary finished without a session id"))
		Expect(state().SessionID).To(BeZero())
	})

	It("keeps the partial summary when the stream is interrupted", func() {
		gw.Handle("POST /api/users/17/summarize", testutils.InterruptedReply("r-1", "upstream idle timeout", "## Sum"))

		out, err := run("-T", writeFile("t.vtt", "t"), "-R", writeFile("r.mp4", "r"))
		Expect(err).To(HaveOccurred())
		Expect(out).To(ContainSubstring("## Sum"))
		Expect(out).To(ContainSubstring("The response was interrupted: upstream idle timeout"))
	})

	It("requires a login", func() {
		Expect(dotdir.NewManager().SaveState(&dotdir.State{}, dir)).To(Succeed())

		_, err := run("-T", writeFile("t.vtt", "t"), "-R", writeFile("r.mp4", "r"))
		Expect(err).To(MatchError(cmdutil.ErrNotLoggedIn))
		Expect(gw.Calls()).To(BeEmpty())
	})

	It("requires the transcript and the recording", func() {
		_, err := run("-T", writeFile("t.vtt", "t"))
		Expect(err).To(MatchError(ContainSubstring(`"recording"`)))
		Expect(gw.Calls()).To(BeEmpty())
	})
})
