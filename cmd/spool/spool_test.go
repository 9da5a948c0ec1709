package spoolcmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	spoolcmder "github.com/papercomputeco/spool/cmd/spool"
	"github.com/papercomputeco/spool/pkg/utils"
)

var _ = Describe("NewSpoolCmd", func() {
	execute := func(args ...string) string {
		cmd := spoolcmder.NewSpoolCmd()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		Expect(cmd.Execute()).To(Succeed())
		return out.String()
	}

	It("registers every subcommand", func() {
		cmd := spoolcmder.NewSpoolCmd()
		var names []string
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("serve", "replay", "config", "version"))
	})

	It("exposes the global flags to subcommands", func() {
		cmd := spoolcmder.NewSpoolCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("prints the build with --version", func() {
		Expect(execute("--version")).To(ContainSubstring(utils.VersionString()))
	})

	It("prints build details with the version command", func() {
		out := execute("version")
		Expect(out).To(ContainSubstring("Version: " + utils.Version))
		Expect(out).To(ContainSubstring("Sha: " + utils.Sha))
	})
})
