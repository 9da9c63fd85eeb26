// Package testutils provides fakes shared by streamchat tests: an in-process
// chat server and scripted stream bodies.
package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/papercomputeco/streamchat/pkg/llm"
)

const (
	// MockUsername and MockPassword are the credentials MockChatServer
	// accepts.
	MockUsername = "root"
	MockPassword = "root123"

	// MockToken is the bearer token MockChatServer issues and expects.
	MockToken = "mock-token"
)

// MockChatServer is an httptest server that speaks the chat server API.
// Configure it with the Set* methods; they are safe to call while requests
// are in flight.
type MockChatServer struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []llm.ChatRequest
	headers   []http.Header
	stream    []string
	status    int
	detail    string
	mediaType string
	reply     string
	models    []string
	history   []llm.Message
	block     chan struct{}
}

// NewMockChatServer starts a server that answers streams with an empty,
// immediately closed stream and plain chats with "ok".
func NewMockChatServer() *MockChatServer {
	s := &MockChatServer{
		status:    http.StatusOK,
		mediaType: "text/event-stream",
		reply:     "ok",
		models:    []string{"qwen3-max", "qwen-plus"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /user/token", s.handleToken)
	mux.HandleFunc("POST /user/logout", s.authed(s.handleLogout))
	mux.HandleFunc("POST /chat/chat", s.authed(s.handleChat))
	mux.HandleFunc("GET /chat/models", s.authed(s.handleModels))
	mux.HandleFunc("GET /chat/history", s.authed(s.handleHistory))
	mux.HandleFunc("DELETE /chat/history", s.authed(s.handleClearHistory))

	s.Server = httptest.NewServer(mux)

	return s
}

// SetStream sets the raw chunks written, each flushed separately, in reply
// to streaming chat requests.
func (s *MockChatServer) SetStream(chunks ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stream = chunks
}

// SetStatus makes chat requests fail with status and a {"detail": ...}
// body.
func (s *MockChatServer) SetStatus(status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
	s.detail = detail
}

// SetMediaType overrides the Content-Type of streaming replies.
func (s *MockChatServer) SetMediaType(mediaType string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mediaType = mediaType
}

// SetReply sets the assistant content of non-streaming replies.
func (s *MockChatServer) SetReply(reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reply = reply
}

// SetHistory sets the messages returned by the history endpoint.
func (s *MockChatServer) SetHistory(msgs ...llm.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = msgs
}

// Hold makes streaming replies stay open after the configured chunks until
// the returned release func is called or the client goes away.
func (s *MockChatServer) Hold() (release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	block := make(chan struct{})
	s.block = block

	var once sync.Once
	return func() { once.Do(func() { close(block) }) }
}

// Requests returns the chat requests received so far.
func (s *MockChatServer) Requests() []llm.ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]llm.ChatRequest(nil), s.requests...)
}

// Headers returns the headers of the chat requests received so far.
func (s *MockChatServer) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]http.Header(nil), s.headers...)
}

// History returns the server-side history.
func (s *MockChatServer) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]llm.Message(nil), s.history...)
}

func (s *MockChatServer) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+MockToken {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeJSON(w, http.StatusUnauthorized, llm.ErrorResponse{Detail: "Could not validate credentials"})
			return
		}
		next(w, r)
	}
}

func (s *MockChatServer) handleToken(w http.ResponseWriter, r *http.Request) {
	var req llm.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, llm.ErrorResponse{Detail: err.Error()})
		return
	}

	if req.Username != MockUsername || req.Password != MockPassword {
		writeJSON(w, http.StatusUnauthorized, llm.ErrorResponse{Detail: "incorrect username or password"})
		return
	}

	writeJSON(w, http.StatusOK, llm.Token{
		Message:     "login succeeded",
		AccessToken: MockToken,
		TokenType:   "bearer",
		Username:    req.Username,
	})
}

func (s *MockChatServer) handleLogout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out", "username": MockUsername})
}

func (s *MockChatServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var req llm.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, llm.ErrorResponse{Detail: err.Error()})
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.headers = append(s.headers, r.Header.Clone())
	if n := len(req.Messages); n > 0 {
		s.history = append(s.history, req.Messages[n-1])
	}
	status, detail := s.status, s.detail
	stream := append([]string(nil), s.stream...)
	mediaType, reply, block := s.mediaType, s.reply, s.block
	s.mu.Unlock()

	if status != http.StatusOK {
		writeJSON(w, status, llm.ErrorResponse{Detail: detail})
		return
	}

	if !req.Stream {
		msg := llm.NewTextMessage(llm.RoleAssistant, reply)
		s.mu.Lock()
		s.history = append(s.history, msg)
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, llm.ChatResponse{Message: msg, Model: req.Model})
		return
	}

	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	for _, chunk := range stream {
		if _, err := w.Write([]byte(chunk)); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	if block != nil {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}
}

func (s *MockChatServer) handleModels(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	models := append([]string(nil), s.models...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, llm.ModelList{Models: models, DefaultModel: models[0]})
}

func (s *MockChatServer) handleHistory(w http.ResponseWriter, _ *http.Request) {
	msgs := s.History()
	if msgs == nil {
		msgs = []llm.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *MockChatServer) handleClearHistory(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "history cleared"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(h http.Header) string {
	return strings.TrimPrefix(h.Get("Authorization"), "Bearer ")
}
