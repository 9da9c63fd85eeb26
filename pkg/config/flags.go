package config

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --model
// on both "streamchat chat" and "streamchat ask").
type Flag struct {
	// Name is the long flag name (e.g. "model").
	Name string

	// Shorthand is the one-letter short flag (e.g. "m"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "chat.model").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling the Add*Flag helpers and
// BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagServer      = "server"
	FlagTimeout     = "timeout"
	FlagModel       = "model"
	FlagTemperature = "temperature"
	FlagMaxTokens   = "max-tokens"
	FlagStream      = "stream"
	FlagMarkdown    = "markdown"
)

// Flags is the registry shared by all streamchat commands.
var Flags = FlagSet{
	FlagServer:      {Name: "server", Shorthand: "s", ViperKey: "client.server_url", Description: "Chat server URL"},
	FlagTimeout:     {Name: "timeout", ViperKey: "client.timeout", Description: "Abort a request after this long (0 for no limit)"},
	FlagModel:       {Name: "model", Shorthand: "m", ViperKey: "chat.model", Description: "Model to chat with"},
	FlagTemperature: {Name: "temperature", Shorthand: "t", ViperKey: "chat.temperature", Description: "Sampling temperature"},
	FlagMaxTokens:   {Name: "max-tokens", ViperKey: "chat.max_tokens", Description: "Maximum tokens in a reply"},
	FlagStream:      {Name: "stream", ViperKey: "chat.stream", Description: "Stream replies as they are generated"},
	FlagMarkdown:    {Name: "markdown", ViperKey: "chat.markdown", Description: "Render replies as markdown"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	addFlag(fs, key, target, (*viper.Viper).GetString, cmd.Flags().StringVarP)
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, key string, target *int) {
	addFlag(fs, key, target, (*viper.Viper).GetInt, cmd.Flags().IntVarP)
}

// AddFloatFlag registers a float64 flag on cmd from the given FlagSet.
func AddFloatFlag(cmd *cobra.Command, fs FlagSet, key string, target *float64) {
	addFlag(fs, key, target, (*viper.Viper).GetFloat64, cmd.Flags().Float64VarP)
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, key string, target *bool) {
	addFlag(fs, key, target, (*viper.Viper).GetBool, cmd.Flags().BoolVarP)
}

// AddDurationFlag registers a duration flag on cmd from the given FlagSet.
func AddDurationFlag(cmd *cobra.Command, fs FlagSet, key string, target *time.Duration) {
	addFlag(fs, key, target, (*viper.Viper).GetDuration, cmd.Flags().DurationVarP)
}

// addFlag registers the flag fs[key] with varP, defaulting it to the value
// NewDefaultConfig holds for its viper key. Unknown keys are ignored.
func addFlag[T any](
	fs FlagSet,
	key string,
	target *T,
	get func(*viper.Viper, string) T,
	varP func(p *T, name, shorthand string, value T, usage string),
) {
	def, ok := fs[key]
	if !ok {
		return
	}

	varP(target, def.Name, def.Shorthand, get(defaults(), def.ViperKey), def.Description)
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaults returns a viper holding only the values of NewDefaultConfig.
func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
