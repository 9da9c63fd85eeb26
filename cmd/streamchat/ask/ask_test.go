package askcmder_test

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	askcmder "github.com/papercomputeco/streamchat/cmd/streamchat/ask"
	"github.com/papercomputeco/streamchat/pkg/cliui"
	"github.com/papercomputeco/streamchat/pkg/conversation"
	"github.com/papercomputeco/streamchat/pkg/llm"
	testutils "github.com/papercomputeco/streamchat/pkg/utils/test"
)

var _ = Describe("NewAskCmd", func() {
	It("registers the chat flags", func() {
		cmd := askcmder.NewAskCmd()
		for _, name := range []string{"server", "timeout", "model", "temperature", "max-tokens", "stream", "markdown", "dump-stream"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
		Expect(cmd.Flags().Lookup("model").Shorthand).To(Equal("m"))
	})
})

var _ = Describe("Ask command execution", func() {
	var (
		server *testutils.MockChatServer
		dir    string
		out    bytes.Buffer
	)

	BeforeEach(func() {
		server = testutils.NewMockChatServer()
		DeferCleanup(server.Close)
		dir = testutils.UseTempDotDir()
		testutils.StoreMockToken(dir, server.URL)
		out.Reset()
	})

	run := func(stdin string, args ...string) error {
		cmd := askcmder.NewAskCmd()
		cmd.SetArgs(append([]string{"--server", server.URL, "--markdown=false"}, args...))
		cmd.SetIn(strings.NewReader(stdin))
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		return cmd.Execute()
	}

	It("streams the reply to the arguments", func() {
		server.SetStream(testutils.StreamOf(true, "Hel", "lo"))

		Expect(run("", "hi", "there")).To(Succeed())
		Expect(out.String()).To(Equal(cliui.AssistantPrompt + " Hello\n"))

		reqs := server.Requests()
		Expect(reqs).To(HaveLen(1))
		Expect(reqs[0].Stream).To(BeTrue())
		Expect(reqs[0].Model).To(Equal("qwen3-max"))
		Expect(reqs[0].Messages).To(Equal([]llm.Message{{Role: llm.RoleUser, Content: "hi there"}}))
	})

	It("reads the message from stdin without arguments", func() {
		server.SetStream(testutils.StreamOf(true, "ok"))

		Expect(run("from stdin\n")).To(Succeed())
		Expect(server.Requests()[0].Messages[0].Content).To(Equal("from stdin"))
	})

	It("rejects an empty stdin", func() {
		Expect(run("  \n")).To(MatchError(ContainSubstring("nothing to ask")))
		Expect(server.Requests()).To(BeEmpty())
	})

	It("applies flags over the defaults", func() {
		server.SetReply("complete")

		Expect(run("", "--stream=false", "-m", "qwen-plus", "-t", "0.1", "--max-tokens", "64", "hi")).To(Succeed())
		Expect(out.String()).To(Equal(cliui.AssistantPrompt + "\ncomplete\n\n"))

		req := server.Requests()[0]
		Expect(req.Stream).To(BeFalse())
		Expect(req.Model).To(Equal("qwen-plus"))
		Expect(req.Temperature).To(Equal(0.1))
		Expect(req.MaxTokens).To(Equal(64))
	})

	It("prints the notice and fails when the server fails", func() {
		server.SetStatus(http.StatusInternalServerError, "model crashed")

		err := run("", "hi")
		Expect(err).To(MatchError(ContainSubstring("model crashed")))
		Expect(out.String()).To(ContainSubstring(conversation.GenericErrorMessage))
	})

	It("dumps the raw stream", func() {
		raw := testutils.StreamOf(true, "dumped")
		server.SetStream(raw)
		dump := filepath.Join(dir, "raw.txt")

		Expect(run("", "--dump-stream", dump, "hi")).To(Succeed())

		data, err := os.ReadFile(dump)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(raw))
	})
})
