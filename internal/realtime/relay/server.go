package relay

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
)

// Server exposes the hub over HTTP: a websocket upgrade endpoint per room
// and a health check.
type Server struct {
	hub      *Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewServer wires a hub into an HTTP server.
func NewServer(logger *log.Logger) *Server {
	return &Server{
		hub:    NewHub(logger),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The relay has no authentication; anyone who knows the
			// room name may join
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the fully assembled HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws/{room}", s.handleWebsocket).Methods("GET")
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	return corsHandler.Handler(r)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]
	if room == "" {
		http.Error(w, "missing room", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	s.hub.Join(room, conn)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
