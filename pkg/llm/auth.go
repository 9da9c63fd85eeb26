package llm

// LoginRequest is the body of the token endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Token is the reply of the token endpoint. The access token is an opaque
// bearer credential; clients never inspect it.
type Token struct {
	Message     string `json:"message,omitempty"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}
