package testutils

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/streamchat/pkg/credentials"
	"github.com/papercomputeco/streamchat/pkg/dotdir"
)

// UseTempDotDir makes a fresh temp dir holding a .streamchat/ directory the
// working directory for the current test and returns the .streamchat/ path.
// Commands run without --config-dir pick it up. STREAMCHAT_TOKEN is cleared
// so stored credentials are used, and STREAMCHAT_HOME so the directory is
// found.
func UseTempDotDir() string {
	tmp := GinkgoT().TempDir()
	dir := filepath.Join(tmp, ".streamchat")
	Expect(os.MkdirAll(dir, 0o700)).To(Succeed())

	orig, err := os.Getwd()
	Expect(err).NotTo(HaveOccurred())
	Expect(os.Chdir(tmp)).To(Succeed())
	DeferCleanup(os.Chdir, orig)

	GinkgoT().Setenv("STREAMCHAT_TOKEN", "")
	GinkgoT().Setenv(dotdir.HomeEnvVar, "")

	return dir
}

// StoreMockToken stores MockToken for serverURL in the credentials file of
// dir, as a successful login would.
func StoreMockToken(dir, serverURL string) {
	creds, err := credentials.NewManager(dir)
	Expect(err).NotTo(HaveOccurred())
	Expect(creds.SetToken(serverURL, credentials.ServerCredential{
		Token:     MockToken,
		TokenType: "bearer",
		Username:  MockUsername,
	})).To(Succeed())
}
