package credentials

// Credentials represents the stored bearer tokens in credentials.toml.
type Credentials struct {
	Version int                         `toml:"version"`
	Servers map[string]ServerCredential `toml:"servers"`
}

// ServerCredential holds the token issued by a single chat server.
type ServerCredential struct {
	Token     string `toml:"token"`
	TokenType string `toml:"token_type,omitempty"`
	Username  string `toml:"username,omitempty"`
}
