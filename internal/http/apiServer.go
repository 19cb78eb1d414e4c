package http

import (
	"context"
	"log"
	"net/http"
	"sync"

	"pmchat/internal/api"
	"pmchat/internal/auth"
	"pmchat/internal/hub"
	"pmchat/internal/ws"
)

type APIServer struct {
	server *http.Server
	wg     sync.WaitGroup
}

func NewAPIServer(verifier *auth.Verifier, h *hub.Hub, directory api.Directory, historyLimit int, addr string) *APIServer {
	wsServer := ws.NewServer(verifier, h)
	apiHandlers := api.New(verifier, h, directory, historyLimit)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/rooms", apiHandlers.RequireAuth(apiHandlers.RoomsHandler))
	mux.HandleFunc("GET /api/rooms/{id}/messages", apiHandlers.RequireAuth(apiHandlers.RoomMessagesHandler))
	mux.HandleFunc("GET /api/rooms/{id}/users", apiHandlers.RequireAuth(apiHandlers.RoomUsersHandler))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// WebSocket endpoint
	mux.HandleFunc("/api/chat", wsServer.HandleConnections)

	if addr == "" {
		addr = ":8080"
	}

	return &APIServer{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

func (s *APIServer) Start() error {
	log.Printf("Server started on %s", s.server.Addr)
	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *APIServer) Shutdown(ctx context.Context) error {
	defer s.wg.Wait()
	return s.server.Shutdown(ctx)
}
