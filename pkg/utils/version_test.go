package utils

import (
	"runtime"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("UserAgent", func() {
	It("names the component, version and platform", func() {
		orig := Version
		Version = "1.2.3"
		DeferCleanup(func() { Version = orig })

		Expect(UserAgent("fair-cli")).To(Equal("fair-cli/1.2.3 (" + runtime.GOOS + "/" + runtime.GOARCH + ")"))
	})
})
