package streamchatcmder_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	streamchatcmder "github.com/papercomputeco/streamchat/cmd/streamchat"
	"github.com/papercomputeco/streamchat/pkg/cliui"
	"github.com/papercomputeco/streamchat/pkg/utils"
	testutils "github.com/papercomputeco/streamchat/pkg/utils/test"
)

var _ = Describe("NewStreamchatCmd", func() {
	It("has every subcommand", func() {
		cmd := streamchatcmder.NewStreamchatCmd()
		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("chat", "ask", "login", "logout", "models", "history", "config", "version"))
	})

	It("has the global flags", func() {
		cmd := streamchatcmder.NewStreamchatCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("prints the version", func() {
		var out bytes.Buffer
		cmd := streamchatcmder.NewStreamchatCmd()
		cmd.SetArgs([]string{"version"})
		cmd.SetOut(&out)

		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(HavePrefix("Version: "))
		Expect(out.String()).To(ContainSubstring("Platform: "))
	})

	It("prints only the version with --short", func() {
		var out bytes.Buffer
		cmd := streamchatcmder.NewStreamchatCmd()
		cmd.SetArgs([]string{"version", "--short"})
		cmd.SetOut(&out)

		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(Equal(utils.Version + "\n"))
	})
})

var _ = Describe("Streamchat end to end", func() {
	var (
		server    *testutils.MockChatServer
		configDir string
	)

	BeforeEach(func() {
		server = testutils.NewMockChatServer()
		DeferCleanup(server.Close)
		configDir = filepath.Join(GinkgoT().TempDir(), "custom")
		GinkgoT().Setenv("STREAMCHAT_TOKEN", "")
	})

	execute := func(stdin string, args ...string) (string, error) {
		var out bytes.Buffer
		cmd := streamchatcmder.NewStreamchatCmd()
		cmd.SetArgs(append(args, "--config-dir", configDir))
		cmd.SetIn(strings.NewReader(stdin))
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		err := cmd.Execute()
		return out.String(), err
	}

	It("logs in, saves the server and streams a reply", func() {
		_, err := execute("", "config", "set", "client.server_url", server.URL)
		Expect(err).NotTo(HaveOccurred())

		_, err = execute(testutils.MockPassword+"\n", "login", testutils.MockUsername)
		Expect(err).NotTo(HaveOccurred())
		Expect(filepath.Join(configDir, "credentials.toml")).To(BeARegularFile())

		server.SetStream(testutils.StreamOf(true, "Hel", "lo"))
		out, err := execute("", "ask", "--markdown=false", "hi")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(cliui.AssistantPrompt + " Hello\n"))
	})

	It("writes debug logs to the log file", func() {
		_, err := execute("", "models", "--server", server.URL)
		Expect(err).To(HaveOccurred())

		data, err := os.ReadFile(filepath.Join(configDir, "streamchat.log"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(BeEmpty())

		testutils.StoreMockToken(configDir, server.URL)
		_, err = execute("", "models", "--server", server.URL, "--debug")
		Expect(err).NotTo(HaveOccurred())

		data, err = os.ReadFile(filepath.Join(configDir, "streamchat.log"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"command":"models"`))
		Expect(string(data)).To(ContainSubstring(`"component":"client"`))
	})
})
