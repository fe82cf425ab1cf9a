// Package statusapi serves live per-rank search progress over a gin REST
// endpoint and a gorilla/websocket event stream, for the optional -status-addr
// flag — an out-of-core introspection surface, not part of the search
// protocol itself.
package statusapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/smilemakc/hitori/internal/stats"
)

// Snapshot is one point-in-time view of the search, broadcast to every
// connected websocket client whenever Publish is called.
type Snapshot struct {
	Leaves    []int64 `json:"leaves"`
	Total     int64   `json:"total"`
	Found     bool    `json:"found"`
	Solved    bool    `json:"solved"`
	Terminate bool    `json:"terminate"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is a small gin app exposing /status (REST) and /status/ws
// (websocket push) over the same live Registry.
type Server struct {
	registry *stats.Registry
	log      zerolog.Logger

	mu      sync.Mutex
	clients map[string]*websocket.Conn

	engine *gin.Engine
}

// New builds a Server bound to registry.
func New(registry *stats.Registry, log zerolog.Logger) *Server {
	s := &Server{
		registry: registry,
		log:      log.With().Str("component", "statusapi").Logger(),
		clients:  make(map[string]*websocket.Conn),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/status", s.handleStatus)
	r.GET("/status/ws", s.handleWS)
	s.engine = r
	return s
}

// Handler returns the http.Handler to pass to http.ListenAndServe.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) snapshot() Snapshot {
	return Snapshot{Leaves: s.registry.Snapshot(), Total: s.registry.Total()}
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshot())
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	clientID := uuid.New().String()
	s.mu.Lock()
	s.clients[clientID] = conn
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, clientID)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	// Drain and discard inbound frames so the peer's close frame is
	// observed; this endpoint is publish-only.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Publish pushes snap to every connected websocket client, dropping any that
// error (closed/slow readers are pruned, not retried).
func (s *Server) Publish(snap Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal status snapshot")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(s.clients, id)
			_ = conn.Close()
		}
	}
}
