package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/burnes-center/fair/pkg/dotdir"
)

var _ = Describe("Manager", func() {
	var (
		root string
		home string
		m    *dotdir.Manager
	)

	// chdir moves into dir for the rest of the spec.
	chdir := func(dir string) {
		orig, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(dir)).To(Succeed())
		DeferCleanup(os.Chdir, orig)
	}

	setenv := func(key, value string) {
		orig, had := os.LookupEnv(key)
		Expect(os.Setenv(key, value)).To(Succeed())
		DeferCleanup(func() {
			if had {
				os.Setenv(key, orig)
			} else {
				os.Unsetenv(key)
			}
		})
	}

	BeforeEach(func() {
		var err error
		root, err = filepath.EvalSymlinks(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		home = filepath.Join(root, "home")
		Expect(os.Mkdir(home, 0o755)).To(Succeed())
		setenv("HOME", home)
		setenv(dotdir.HomeEnv, "")

		m = dotdir.NewManager()
	})

	Describe("Target", func() {
		It("creates an override directory that does not exist", func() {
			dir := filepath.Join(root, "custom")

			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))
			Expect(dir).To(BeADirectory())
		})

		It("prefers the override over FAIR_HOME and a project dir", func() {
			Expect(os.Mkdir(filepath.Join(root, ".fair"), 0o755)).To(Succeed())
			chdir(root)
			setenv(dotdir.HomeEnv, filepath.Join(root, "env"))

			override := filepath.Join(root, "override")
			result, err := m.Target(override)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(override))
		})

		It("uses FAIR_HOME over a project dir", func() {
			Expect(os.Mkdir(filepath.Join(root, ".fair"), 0o755)).To(Succeed())
			chdir(root)
			env := filepath.Join(root, "env")
			setenv(dotdir.HomeEnv, env)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(env))
		})

		It("finds a .fair dir in the working directory", func() {
			local := filepath.Join(root, ".fair")
			Expect(os.Mkdir(local, 0o755)).To(Succeed())
			chdir(root)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(local))
		})

		It("finds a .fair dir in a parent directory", func() {
			local := filepath.Join(root, ".fair")
			Expect(os.Mkdir(local, 0o755)).To(Succeed())
			nested := filepath.Join(root, "interviews", "2026")
			Expect(os.MkdirAll(nested, 0o755)).To(Succeed())
			chdir(nested)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(local))
		})

		It("ignores a plain file named .fair", func() {
			work := filepath.Join(root, "work")
			Expect(os.Mkdir(work, 0o755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(work, ".fair"), nil, 0o600)).To(Succeed())
			chdir(work)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(home, ".fair")))
		})

		It("falls back to and creates ~/.fair", func() {
			work := filepath.Join(root, "work")
			Expect(os.Mkdir(work, 0o755)).To(Succeed())
			chdir(work)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(home, ".fair")))
			Expect(result).To(BeADirectory())
		})
	})
})
