package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/streamchat/pkg/dotdir"
)

var _ = Describe("Manager", func() {
	var (
		tmpDir string
		m      *dotdir.Manager
	)

	// chdir moves into dir until the test ends.
	chdir := func(dir string) {
		orig, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(dir)).To(Succeed())
		DeferCleanup(os.Chdir, orig)
	}

	BeforeEach(func() {
		var err error
		// EvalSymlinks so results match filepath.Abs on macOS (/var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		home := filepath.Join(tmpDir, "home")
		Expect(os.Mkdir(home, 0o755)).To(Succeed())
		GinkgoT().Setenv("HOME", home)
		GinkgoT().Setenv(dotdir.HomeEnvVar, "")

		work := filepath.Join(tmpDir, "work")
		Expect(os.Mkdir(work, 0o755)).To(Succeed())
		chdir(work)

		m = dotdir.NewManager()
	})

	Describe("Target", func() {
		It("creates a missing override dir owner-only", func() {
			dir := filepath.Join(tmpDir, "custom")

			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o700)))
		})

		It("makes a relative override absolute", func() {
			result, err := m.Target("rel")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, "work", "rel")))
		})

		It("prefers the override over STREAMCHAT_HOME and a local dir", func() {
			GinkgoT().Setenv(dotdir.HomeEnvVar, filepath.Join(tmpDir, "env"))
			Expect(os.Mkdir(".streamchat", 0o700)).To(Succeed())

			result, err := m.Target(filepath.Join(tmpDir, "custom"))
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, "custom")))
		})

		It("prefers STREAMCHAT_HOME over a local dir", func() {
			GinkgoT().Setenv(dotdir.HomeEnvVar, filepath.Join(tmpDir, "env"))
			Expect(os.Mkdir(".streamchat", 0o700)).To(Succeed())

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, "env")))
		})

		It("uses ./.streamchat when it exists", func() {
			Expect(os.Mkdir(".streamchat", 0o700)).To(Succeed())

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, "work", ".streamchat")))
		})

		It("ignores a local .streamchat file", func() {
			Expect(os.WriteFile(".streamchat", nil, 0o600)).To(Succeed())

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, "home", ".streamchat")))
		})

		It("falls back to ~/.streamchat", func() {
			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, "home", ".streamchat")))
			Expect(result).To(BeADirectory())
		})
	})

	Describe("File", func() {
		It("joins the name onto the resolved dir without creating the file", func() {
			path, err := m.File("", "credentials.toml")
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal(filepath.Join(tmpDir, "home", ".streamchat", "credentials.toml")))
			Expect(path).NotTo(BeAnExistingFile())
		})

		It("rejects a directory in place of the file", func() {
			dir := filepath.Join(tmpDir, "custom")
			Expect(os.MkdirAll(filepath.Join(dir, "config.toml"), 0o700)).To(Succeed())

			_, err := m.File(dir, "config.toml")
			Expect(err).To(MatchError(ContainSubstring("is a directory")))
		})
	})
})
