// Package credentials stores the bearer tokens issued by chat servers in
// credentials.toml, keyed by server URL.
package credentials

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/streamchat/pkg/dotdir"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0

	// TokenEnvVar overrides any stored token when set.
	TokenEnvVar = "STREAMCHAT_TOKEN"
)

// Manager manages reading and writing credentials.toml in the .streamchat/ directory.
type Manager struct {
	ddm        *dotdir.Manager
	targetPath string
}

// NewManager creates a new credentials Manager. If override is non-empty it is
// used as the .streamchat/ directory; otherwise the standard dotdir resolution
// applies.
func NewManager(override string) (*Manager, error) {
	mgr := &Manager{}
	mgr.ddm = dotdir.NewManager()

	path, err := mgr.ddm.File(override, credentialsFile)
	if err != nil {
		return nil, err
	}

	mgr.targetPath = path

	return mgr, nil
}

// serverKey normalizes a server URL so "http://host:8000/" and
// "http://host:8000" share a credential.
func serverKey(serverURL string) string {
	return strings.TrimRight(strings.TrimSpace(serverURL), "/")
}

// Load reads credentials.toml. A missing file yields empty Credentials.
func (m *Manager) Load() (*Credentials, error) {
	creds := &Credentials{Version: currentVersion}

	data, err := os.ReadFile(m.targetPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading credentials: %w", err)
	default:
		if err := toml.Unmarshal(data, creds); err != nil {
			return nil, fmt.Errorf("parsing credentials: %w", err)
		}
		if creds.Version != currentVersion {
			return nil, fmt.Errorf("unsupported credentials version %d (expected %d)", creds.Version, currentVersion)
		}
	}

	if creds.Servers == nil {
		creds.Servers = make(map[string]ServerCredential)
	}

	return creds, nil
}

// Save replaces credentials.toml with creds. The file is written owner-only
// and swapped in with a rename.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.targetPath), ".credentials-*.toml")
	if err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(creds); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	if err := os.Rename(tmp.Name(), m.targetPath); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	return nil
}

// update loads the credentials, applies fn and saves the result.
func (m *Manager) update(fn func(servers map[string]ServerCredential)) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}

	fn(creds.Servers)

	return m.Save(creds)
}

// SetToken stores the credential for the given server.
func (m *Manager) SetToken(serverURL string, cred ServerCredential) error {
	return m.update(func(servers map[string]ServerCredential) {
		servers[serverKey(serverURL)] = cred
	})
}

// GetToken returns the stored credential for the given server and whether
// one exists.
func (m *Manager) GetToken(serverURL string) (ServerCredential, bool, error) {
	creds, err := m.Load()
	if err != nil {
		return ServerCredential{}, false, err
	}

	sc, ok := creds.Servers[serverKey(serverURL)]
	return sc, ok, nil
}

// ResolveToken returns the token to use for serverURL: the TokenEnvVar
// environment variable when set, otherwise the stored token. It returns ""
// when there is neither.
func (m *Manager) ResolveToken(serverURL string) (string, error) {
	if tok := os.Getenv(TokenEnvVar); tok != "" {
		return tok, nil
	}

	sc, _, err := m.GetToken(serverURL)
	if err != nil {
		return "", err
	}

	return sc.Token, nil
}

// RemoveToken deletes the stored credential for a server.
func (m *Manager) RemoveToken(serverURL string) error {
	return m.update(func(servers map[string]ServerCredential) {
		delete(servers, serverKey(serverURL))
	})
}

// ListServers returns the URLs of servers that have stored credentials,
// sorted.
func (m *Manager) ListServers() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}

	return slices.Sorted(maps.Keys(creds.Servers)), nil
}

// GetTarget returns the resolved path to the credentials file.
func (m *Manager) GetTarget() string {
	return m.targetPath
}
