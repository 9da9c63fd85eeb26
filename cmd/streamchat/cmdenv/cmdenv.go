// Package cmdenv loads what every streamchat command needs: the resolved
// settings (flag > env > config.toml > defaults), the stored credentials,
// a logger and an API client.
package cmdenv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/streamchat/pkg/client"
	"github.com/papercomputeco/streamchat/pkg/config"
	"github.com/papercomputeco/streamchat/pkg/conversation"
	"github.com/papercomputeco/streamchat/pkg/credentials"
	"github.com/papercomputeco/streamchat/pkg/logger"
)

// Env is created by Load in a command's RunE and closed when it returns.
type Env struct {
	Viper    *viper.Viper
	Configer *config.Configer
	Creds    *credentials.Manager
	Logger   *slog.Logger
	Debug    bool

	cmd       *cobra.Command
	configDir string
	flagKeys  []string
	logFile   *os.File
}

// Load resolves the configuration for cmd. flagKeys are the config.Flags
// registry keys cmd registered; explicitly set flags win over every other
// source.
func Load(cmd *cobra.Command, flagKeys ...string) (*Env, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	creds, err := credentials.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	e := &Env{
		Configer:  cfger,
		Creds:     creds,
		Debug:     debug,
		cmd:       cmd,
		configDir: configDir,
		flagKeys:  flagKeys,
	}

	if err := e.Reload(); err != nil {
		return nil, err
	}

	if err := e.initLogger(cmd.ErrOrStderr()); err != nil {
		return nil, err
	}

	return e, nil
}

// Reload re-reads config.toml and the environment. Flag values keep
// precedence.
func (e *Env) Reload() error {
	v, err := e.resolve()
	if err != nil {
		return err
	}
	e.Viper = v

	return nil
}

// ReloadSettings resolves the chat request settings afresh without
// touching e, so it may run while e is in use on another goroutine.
func (e *Env) ReloadSettings() (conversation.Settings, error) {
	v, err := e.resolve()
	if err != nil {
		return conversation.Settings{}, err
	}

	return settingsFrom(v), nil
}

func (e *Env) resolve() (*viper.Viper, error) {
	v, err := config.InitViper(e.configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	config.BindRegisteredFlags(v, e.cmd, config.Flags, e.flagKeys)

	return v, nil
}

// initLogger logs JSON (or text) records to the configured log file and,
// with --debug, pretty records to stderr as well.
func (e *Env) initLogger(stderr io.Writer) error {
	var console, file *slog.Logger

	if e.Debug {
		console = logger.New(
			logger.WithDebug(true),
			logger.WithPretty(true),
			logger.WithPrefix("streamchat"),
			logger.WithWriter(stderr),
		)
	}

	if path := e.Configer.LogPath(e.Viper.GetString("log.file")); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		e.logFile = f

		file = logger.New(
			logger.WithDebug(e.Debug),
			logger.WithJSON(e.Viper.GetBool("log.json")),
			logger.WithWriter(f),
		)
	}

	e.Logger = logger.Multi(console, file).With("command", e.cmd.Name())

	return nil
}

// Close releases the log file.
func (e *Env) Close() error {
	if e.logFile == nil {
		return nil
	}
	return e.logFile.Close()
}

// ServerURL returns the chat server URL.
func (e *Env) ServerURL() string {
	return e.Viper.GetString("client.server_url")
}

// Timeout returns the per-request limit, 0 for none.
func (e *Env) Timeout() time.Duration {
	return e.Viper.GetDuration("client.timeout")
}

// Markdown reports whether replies are rendered as markdown.
func (e *Env) Markdown() bool {
	return e.Viper.GetBool("chat.markdown")
}

// Settings returns the chat request settings.
func (e *Env) Settings() conversation.Settings {
	return settingsFrom(e.Viper)
}

func settingsFrom(v *viper.Viper) conversation.Settings {
	return conversation.Settings{
		Model:       v.GetString("chat.model"),
		Temperature: v.GetFloat64("chat.temperature"),
		MaxTokens:   v.GetInt("chat.max_tokens"),
		Stream:      v.GetBool("chat.stream"),
	}
}

// RequestContext bounds one request by the configured timeout. The timeout
// acts as a watchdog: it cancels the request like Ctrl+C would.
func (e *Env) RequestContext(parent context.Context) (context.Context, context.CancelFunc) {
	if d := e.Timeout(); d > 0 {
		return context.WithTimeout(parent, d)
	}
	return context.WithCancel(parent)
}

// Client returns a client for the configured server, carrying the stored
// token. With requireToken, a missing token is an error.
func (e *Env) Client(requireToken bool) (*client.Client, error) {
	server := e.ServerURL()

	token, err := e.Creds.ResolveToken(server)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	if requireToken && token == "" {
		return nil, fmt.Errorf("%w to %s: run \"streamchat login <username>\" first", client.ErrNotLoggedIn, server)
	}

	return client.New(server,
		client.WithToken(token),
		client.WithLogger(e.Logger),
	), nil
}

// Explain adds a hint to errors a user can act on.
func Explain(err error) error {
	switch {
	case err == nil:
		return nil
	case client.IsUnauthorized(err):
		return fmt.Errorf("%w\n\nThe server rejected the stored token. Run \"streamchat login <username>\" again", err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w\n\nThe request took longer than the configured timeout (client.timeout)", err)
	default:
		return err
	}
}
