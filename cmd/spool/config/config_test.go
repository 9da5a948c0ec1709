package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/spool/cmd/spool/config"
)

func newCmd(out *bytes.Buffer, args ...string) *cobra.Command {
	cmd := configcmder.NewConfigCmd()
	cmd.PersistentFlags().String("config-dir", "", "Override path to .spool/ config directory")
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	return cmd
}

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
		tmpDir string
		out    *bytes.Buffer
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()

		origDir, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
		DeferCleanup(func() { _ = os.Chdir(origDir) })

		GinkgoT().Setenv("HOME", filepath.Join(tmpDir, "home"))

		// Create a local .spool dir so the manager picks it up
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".spool"), 0o755)).To(Succeed())
		out = &bytes.Buffer{}
	})

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			Expect(newCmd(out, "set", "api.listen", ":9000").Execute()).To(Succeed())

			data, err := os.ReadFile(filepath.Join(tmpDir, ".spool", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`listen = ":9000"`))
		})

		It("writes into an override directory", func() {
			override := filepath.Join(tmpDir, "custom")
			Expect(newCmd(out, "set", "kafka.topic", "events", "--config-dir", override).Execute()).To(Succeed())

			_, err := os.Stat(filepath.Join(override, "config.toml"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("creates the home directory when no .spool exists", func() {
			Expect(os.RemoveAll(filepath.Join(tmpDir, ".spool"))).To(Succeed())

			Expect(newCmd(out, "set", "debug.strict", "true").Execute()).To(Succeed())

			_, err := os.Stat(filepath.Join(tmpDir, "home", ".spool", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects unknown keys", func() {
			Expect(newCmd(out, "set", "invalid_key", "value").Execute()).NotTo(Succeed())
		})

		It("requires exactly two arguments", func() {
			Expect(newCmd(out, "set", "api.listen").Execute()).NotTo(Succeed())
		})

		It("rejects zero arguments", func() {
			Expect(newCmd(out, "set").Execute()).NotTo(Succeed())
		})

		It("rejects invalid uint values", func() {
			Expect(newCmd(out, "set", "bus.queue_size", "not-a-number").Execute()).NotTo(Succeed())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(newCmd(&bytes.Buffer{}, "set", "channels.trace", "spans").Execute()).To(Succeed())

			Expect(newCmd(out, "get", "channels.trace").Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("spans"))
		})

		It("reports an unset key", func() {
			Expect(newCmd(out, "get", "sse.url").Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("<not set>"))
		})

		It("rejects unknown keys", func() {
			Expect(newCmd(out, "get", "invalid_key").Execute()).NotTo(Succeed())
		})

		It("requires exactly one argument", func() {
			Expect(newCmd(out, "get").Execute()).NotTo(Succeed())
		})
	})

	Describe("list subcommand", func() {
		It("lists defaults when no config file exists", func() {
			Expect(newCmd(out, "list").Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("api.listen"))
			Expect(out.String()).To(ContainSubstring(`":8086"`))
		})

		It("lists configured breakpoint conditions", func() {
			toml := "[[debug.breakpoints]]\nchannel = \"trace\"\noperation = \"model_call\"\n"
			Expect(os.WriteFile(filepath.Join(tmpDir, ".spool", "config.toml"), []byte(toml), 0o600)).To(Succeed())

			Expect(newCmd(out, "list").Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("channel=trace operation=model_call"))
		})

		It("rejects any arguments", func() {
			Expect(newCmd(out, "list", "extra").Execute()).NotTo(Succeed())
		})
	})
})
