package cliui_test

import (
	"bytes"
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/streamchat/pkg/client"
	"github.com/papercomputeco/streamchat/pkg/cliui"
	"github.com/papercomputeco/streamchat/pkg/conversation"
	testutils "github.com/papercomputeco/streamchat/pkg/utils/test"
)

var _ = Describe("Turn", func() {
	var (
		server *testutils.MockChatServer
		conv   *conversation.Conversation
		out    bytes.Buffer
	)

	newConversation := func(stream bool) *conversation.Conversation {
		settings := conversation.DefaultSettings()
		settings.Stream = stream

		cl := client.New(server.URL, client.WithToken(testutils.MockToken))
		return conversation.New(cl, conversation.WithSettings(settings))
	}

	BeforeEach(func() {
		server = testutils.NewMockChatServer()
		DeferCleanup(server.Close)
		out.Reset()
	})

	It("prints a streamed reply as one prefixed line", func() {
		server.SetStream(testutils.StreamOf(true, "Hel", "lo"))
		conv = newConversation(true)

		Expect(cliui.Turn(context.Background(), &out, conv, "hi", false)).To(Succeed())
		Expect(out.String()).To(Equal(cliui.AssistantPrompt + " Hello\n"))
	})

	It("prints streamed markdown as it arrives, unrendered", func() {
		server.SetStream(testutils.StreamOf(true, "It is ", "**4**."))
		conv = newConversation(true)

		Expect(cliui.Turn(context.Background(), &out, conv, "hi", true)).To(Succeed())
		Expect(out.String()).To(Equal(cliui.AssistantPrompt + " It is **4**.\n"))
	})

	It("prints the notice in place of a failed stream", func() {
		server.SetStatus(http.StatusInternalServerError, "model crashed")
		conv = newConversation(true)

		err := cliui.Turn(context.Background(), &out, conv, "hi", false)
		Expect(err).To(HaveOccurred())
		Expect(out.String()).To(Equal(cliui.AssistantPrompt + " " + conversation.GenericErrorMessage + "\n"))
	})

	It("renders a complete reply without the user message", func() {
		server.SetReply("plain answer")
		conv = newConversation(false)

		Expect(cliui.Turn(context.Background(), &out, conv, "hi", false)).To(Succeed())
		Expect(out.String()).To(Equal(cliui.AssistantPrompt + "\nplain answer\n\n"))
	})

	It("prints nothing for a rejected message", func() {
		conv = newConversation(true)

		err := cliui.Turn(context.Background(), &out, conv, "   ", false)
		Expect(err).To(MatchError(conversation.ErrEmptyMessage))
		Expect(out.String()).To(BeEmpty())
	})
})
