package config_test

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/burnes-center/fair/pkg/config"
)

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(config.FromViper(v)).To(Equal(config.NewDefaultConfig()))
	})

	It("reads config file values over defaults", func() {
		data := `[gateway]
upstream = "http://backend:5000"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("gateway.upstream")).To(Equal("http://backend:5000"))
		Expect(v.GetString("gateway.listen")).To(Equal(config.NewDefaultConfig().Gateway.Listen))
	})

	It("env vars take precedence over config file values", func() {
		data := `[storage]
driver = "sqlite"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())
		GinkgoT().Setenv("FAIR_STORAGE_DRIVER", "postgres")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(config.FromViper(v).Storage.Driver).To(Equal("postgres"))
	})

	It("does not watch when no config file is present", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(config.Watch(v, func(fsnotify.Event, *config.Config) {})).To(BeFalse())
	})

	It("reports config file rewrites to the watcher", func() {
		path := filepath.Join(tmpDir, "config.toml")
		Expect(os.WriteFile(path, []byte("[gateway]\nupstream = \"http://one:5000\"\n"), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		changes := make(chan string, 4)
		Expect(config.Watch(v, func(_ fsnotify.Event, cfg *config.Config) {
			changes <- cfg.Gateway.Upstream
		})).To(BeTrue())

		Expect(os.WriteFile(path, []byte("[gateway]\nupstream = \"http://two:5000\"\n"), 0o600)).To(Succeed())
		Eventually(changes, "5s").Should(Receive(Equal("http://two:5000")))
	})

	It("reports values saved through the Configer", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[gateway]\nupstream = \"http://one:5000\"\n"), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		changes := make(chan string, 4)
		Expect(config.Watch(v, func(_ fsnotify.Event, cfg *config.Config) {
			changes <- cfg.Gateway.Upstream
		})).To(BeTrue())

		c, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.SetConfigValue("gateway.upstream", "http://three:5000")).To(Succeed())

		Eventually(changes, "5s").Should(Receive(Equal("http://three:5000")))
	})

	It("defaults every registered key", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		for _, key := range config.ValidConfigKeys() {
			Expect(v.IsSet(key)).To(BeTrue(), key)
		}
	})
})

var _ = Describe("BindFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var upstream string
		config.AddStringFlag(cmd, config.Flags, config.FlagUpstream, &upstream)

		// Simulate flag being set by user
		Expect(cmd.Flags().Set("upstream", "http://flag:5000")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagUpstream})

		Expect(v.GetString("gateway.upstream")).To(Equal("http://flag:5000"))
	})

	It("falls through to config when flag not set", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[gateway]\nlisten = \":5555\"\n"), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagListen, &listen)

		// Do NOT set the flag -- should fall through to config file value
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagListen})

		Expect(v.GetString("gateway.listen")).To(Equal(":5555"))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.BindRegisteredFlags(v, cmd, config.FlagSet{}, []string{"nonexistent"})

		Expect(v.GetString("gateway.listen")).To(Equal(config.NewDefaultConfig().Gateway.Listen))
	})

	It("AddStringFlag pulls name, shorthand, and description from FlagSet", func() {
		cmd := &cobra.Command{Use: "test"}
		var target string
		config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &target)

		f := cmd.Flags().Lookup("target")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("t"))
		Expect(f.Usage).To(Equal("FAIR gateway URL"))
		Expect(f.DefValue).To(Equal(config.NewDefaultConfig().Client.Target))
	})

	It("AddUintFlag works for body-limit", func() {
		cmd := &cobra.Command{Use: "test"}
		var limit uint
		config.AddUintFlag(cmd, config.Flags, config.FlagBodyLimit, &limit)

		f := cmd.Flags().Lookup("body-limit")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("200"))
	})
})
