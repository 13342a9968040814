package initcmder

import (
	"bytes"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/burnes-center/fair/pkg/config"
)

var _ = Describe("init", func() {
	It("creates the directory with a default config", func() {
		dir := filepath.Join(GinkgoT().TempDir(), dirName)
		cmd := NewInitCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)

		Expect(runInit(cmd, dir)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Initialized"))

		cfger, err := config.NewConfiger(dir)
		Expect(err).NotTo(HaveOccurred())
		cfg, err := cfger.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(config.NewDefaultConfig()))
	})

	It("leaves an existing directory alone", func() {
		dir := GinkgoT().TempDir()
		cmd := NewInitCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)

		Expect(runInit(cmd, dir)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Already initialized"))
	})
})
