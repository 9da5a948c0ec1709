package utils

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("VersionString", func() {
	It("describes the build", func() {
		DeferCleanup(func(v, s, b string) {
			Version, Sha, Buildtime = v, s, b
		}, Version, Sha, Buildtime)

		Version, Sha, Buildtime = "v0.3.0", "abc1234", "2026-10-01"
		Expect(VersionString()).To(Equal("v0.3.0 (abc1234, built 2026-10-01)"))
	})
})
