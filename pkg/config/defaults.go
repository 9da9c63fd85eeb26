package config

const (
	defaultServerURL = "http://localhost:8000"

	defaultModel       = "qwen3-max"
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000

	defaultLogFile = "streamchat.log"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			ServerURL: defaultServerURL,
		},
		Chat: ChatConfig{
			Model:       defaultModel,
			Temperature: defaultTemperature,
			MaxTokens:   defaultMaxTokens,
			Stream:      true,
			Markdown:    true,
		},
		Log: LogConfig{
			File: defaultLogFile,
			JSON: true,
		},
	}
}
