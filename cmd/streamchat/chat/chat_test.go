package chatcmder_test

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chatcmder "github.com/papercomputeco/streamchat/cmd/streamchat/chat"
	"github.com/papercomputeco/streamchat/pkg/cliui"
	"github.com/papercomputeco/streamchat/pkg/config"
	"github.com/papercomputeco/streamchat/pkg/llm"
	testutils "github.com/papercomputeco/streamchat/pkg/utils/test"
)

// syncBuffer is a bytes.Buffer safe to read while the command writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("has the --model flag with its shorthand", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("model")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("m"))
		Expect(flag.DefValue).To(Equal("qwen3-max"))
	})
})

var _ = Describe("Chat command execution", func() {
	var (
		server *testutils.MockChatServer
		dir    string
		out    *syncBuffer
	)

	BeforeEach(func() {
		server = testutils.NewMockChatServer()
		DeferCleanup(server.Close)
		dir = testutils.UseTempDotDir()
		testutils.StoreMockToken(dir, server.URL)
		server.SetStream(testutils.StreamOf(true, "Hel", "lo"))
		out = &syncBuffer{}
	})

	run := func(in io.Reader, args ...string) error {
		cmd := chatcmder.NewChatCmd()
		cmd.SetArgs(append([]string{"--server", server.URL, "--markdown=false"}, args...))
		cmd.SetIn(in)
		cmd.SetOut(out)
		cmd.SetErr(out)
		return cmd.Execute()
	}

	It("sends every message with the conversation so far", func() {
		Expect(run(strings.NewReader("hi\nagain\n/exit\n"))).To(Succeed())

		reqs := server.Requests()
		Expect(reqs).To(HaveLen(2))
		Expect(reqs[1].Messages).To(Equal([]llm.Message{
			{Role: llm.RoleUser, Content: "hi"},
			{Role: llm.RoleAssistant, Content: "Hello"},
			{Role: llm.RoleUser, Content: "again"},
		}))
		Expect(strings.Count(out.String(), cliui.AssistantPrompt+" Hello\n")).To(Equal(2))
	})

	It("ends on end of input", func() {
		Expect(run(strings.NewReader("hi\n"))).To(Succeed())
		Expect(server.Requests()).To(HaveLen(1))
	})

	It("switches models with /model", func() {
		Expect(run(strings.NewReader("/model qwen-plus\nhi\n/quit\n"))).To(Succeed())

		Expect(out.String()).To(ContainSubstring("qwen-plus"))
		Expect(server.Requests()[0].Model).To(Equal("qwen-plus"))
	})

	It("keeps going after an unknown command", func() {
		Expect(run(strings.NewReader("/nope\nhi\n/exit\n"))).To(Succeed())

		Expect(out.String()).To(ContainSubstring(`unknown command "/nope"`))
		Expect(server.Requests()).To(HaveLen(1))
	})

	It("keeps going after a failed reply without resending the notice", func() {
		server.SetStatus(500, "model crashed")
		in, w := io.Pipe()
		done := make(chan error, 1)
		go func() { done <- run(in) }()

		fmt.Fprintln(w, "hi")
		Eventually(out.String).Should(ContainSubstring("model crashed"))

		server.SetStatus(200, "")
		fmt.Fprintln(w, "again")
		Eventually(server.Requests).Should(HaveLen(2))
		Expect(w.Close()).To(Succeed())
		Eventually(done).Should(Receive(BeNil()))

		Expect(server.Requests()[1].Messages).To(Equal([]llm.Message{
			{Role: llm.RoleUser, Content: "hi"},
			{Role: llm.RoleUser, Content: "again"},
		}))
	})

	It("starts from the server history with --history", func() {
		server.SetHistory(
			llm.Message{Role: llm.RoleUser, Content: "earlier", Timestamp: "2025-01-01T00:00:00"},
			llm.Message{Role: llm.RoleAssistant, Content: "noted"},
		)

		Expect(run(strings.NewReader("hi\n/exit\n"), "--history")).To(Succeed())

		Expect(out.String()).To(ContainSubstring(cliui.UserPrompt + " earlier\n"))
		Expect(server.Requests()[0].Messages).To(Equal([]llm.Message{
			{Role: llm.RoleUser, Content: "earlier"},
			{Role: llm.RoleAssistant, Content: "noted"},
			{Role: llm.RoleUser, Content: "hi"},
		}))
	})

	It("clears both sides with /clear", func() {
		Expect(run(strings.NewReader("hi\n/clear\nagain\n/exit\n"))).To(Succeed())

		Expect(out.String()).To(ContainSubstring("Conversation cleared"))
		Expect(server.Requests()[1].Messages).To(Equal([]llm.Message{
			{Role: llm.RoleUser, Content: "again"},
		}))
	})

	It("applies config.toml edits to the next message", func() {
		cfger, err := config.NewConfiger(dir)
		Expect(err).NotTo(HaveOccurred())

		in, w := io.Pipe()
		done := make(chan error, 1)
		go func() { done <- run(in) }()

		Eventually(func() string {
			Expect(cfger.SetConfigValue("chat.model", "qwen-plus")).To(Succeed())
			fmt.Fprintln(w, "hi")

			reqs := server.Requests()
			if len(reqs) == 0 {
				return ""
			}
			return reqs[len(reqs)-1].Model
		}).WithTimeout(10 * time.Second).WithPolling(250 * time.Millisecond).Should(Equal("qwen-plus"))

		Expect(w.Close()).To(Succeed())
		Eventually(done).Should(Receive(BeNil()))
	})
})
