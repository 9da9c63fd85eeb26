package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/papercomputeco/streamchat/cmd/streamchat/config"
	"github.com/papercomputeco/streamchat/pkg/config"
	testutils "github.com/papercomputeco/streamchat/pkg/utils/test"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		dir string
		out bytes.Buffer
	)

	BeforeEach(func() {
		dir = testutils.UseTempDotDir()
		out.Reset()
	})

	execute := func(args ...string) error {
		cmd := configcmder.NewConfigCmd()
		cmd.SetArgs(args)
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		return cmd.Execute()
	}

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			Expect(execute("set", "chat.model", "qwen-plus")).To(Succeed())

			_, err := os.Stat(filepath.Join(dir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())

			cfger, err := config.NewConfiger(dir)
			Expect(err).NotTo(HaveOccurred())
			cfg, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Chat.Model).To(Equal("qwen-plus"))
			Expect(out.String()).To(ContainSubstring("Config file:"))
		})

		It("rejects unknown keys", func() {
			err := execute("set", "invalid_key", "value")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("requires exactly two arguments", func() {
			Expect(execute("set", "chat.model")).To(HaveOccurred())
		})

		It("rejects zero arguments", func() {
			Expect(execute("set")).To(HaveOccurred())
		})

		It("rejects values out of range", func() {
			Expect(execute("set", "chat.temperature", "3")).To(HaveOccurred())
			Expect(execute("set", "chat.max_tokens", "not-a-number")).To(HaveOccurred())
			Expect(execute("set", "client.timeout", "soon")).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(execute("set", "chat.temperature", "0.2")).To(Succeed())
			out.Reset()

			Expect(execute("get", "chat.temperature")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("0.2"))
		})

		It("shows the default for a key the file does not set", func() {
			Expect(execute("get", "client.server_url")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("http://localhost:8000"))
			Expect(out.String()).To(ContainSubstring("No config file found"))
		})

		It("rejects unknown keys", func() {
			Expect(execute("get", "invalid_key")).To(HaveOccurred())
		})

		It("requires exactly one argument", func() {
			Expect(execute("get")).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key", func() {
			Expect(execute("list")).To(Succeed())
			for _, key := range config.ValidConfigKeys() {
				Expect(out.String()).To(ContainSubstring(key))
			}
			Expect(out.String()).To(MatchRegexp(`client\.timeout\s+<not set>`))
		})

		It("shows values from the file", func() {
			Expect(execute("set", "chat.stream", "false")).To(Succeed())
			out.Reset()

			Expect(execute("list")).To(Succeed())
			Expect(out.String()).To(MatchRegexp(`chat\.stream\s+false`))
		})

		It("rejects any arguments", func() {
			Expect(execute("list", "extra")).To(HaveOccurred())
		})
	})
})
