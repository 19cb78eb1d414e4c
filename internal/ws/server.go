package ws

import (
	"log/slog"
	"net/http"
	"strings"

	"pmchat/internal/auth"
	"pmchat/internal/hub"

	"github.com/gorilla/websocket"
)

type Server struct {
	verifier *auth.Verifier
	hub      *hub.Hub
	upgrader *websocket.Upgrader
}

func NewServer(verifier *auth.Verifier, h *hub.Hub) *Server {
	return &Server{
		verifier: verifier,
		hub:      h,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for now
			},
		},
	}
}

// HandleConnections authenticates the handshake and runs the connection
// until the client goes away. An invalid token is rejected before the
// upgrade; no session is ever created for it.
func (s *Server) HandleConnections(w http.ResponseWriter, r *http.Request) {
	principal, err := s.verifier.Verify(handshakeToken(r))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("error upgrading to websocket", "error", err)
		return
	}

	slog.Info("user connected", "user_id", principal.UserID)
	if err := NewConnection(s.hub, conn, principal).Handle(r.Context()); err != nil {
		slog.Info("connection closed", "user_id", principal.UserID, "error", err)
	}
	slog.Info("user disconnected", "user_id", principal.UserID)
}

// handshakeToken pulls the bearer token from the Authorization header,
// falling back to the "token" query parameter for websocket clients that
// cannot set headers.
func handshakeToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	if token == "" {
		return r.URL.Query().Get("token")
	}
	return strings.TrimPrefix(token, "Bearer ")
}
