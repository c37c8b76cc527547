package ws

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"wumpus/internal/platform"
	"wumpus/internal/scape"
	"wumpus/internal/scapeid"
	"wumpus/pkg/logger"
)

type ServerOptions struct {
	// World is a world file every episode is played on. When empty each
	// connection gets a random world seeded from Seed plus the episode number.
	World      string
	Width      int
	Height     int
	Seed       int64
	MaxTurns   int
	TurnLogDir string
}

// Server plays one episode per websocket connection and stores the result
// through the platform.
type Server struct {
	platform *platform.Platform
	opts     ServerOptions
	episodes atomic.Int64
	log      *logrus.Entry

	upgrader websocket.Upgrader
}

func NewServer(p *platform.Platform, opts ServerOptions) *Server {
	return &Server{
		platform: p,
		opts:     opts,
		log:      logger.Log.WithField("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("upgrade failed")
		return
	}
	defer conn.Close()

	episode := s.episodes.Add(1) - 1
	seed := s.opts.Seed + episode
	kind := scapeid.AgentRemote
	if name := r.URL.Query().Get("agent"); name != "" {
		kind = kind + ":" + name
	}
	log := s.log.WithFields(logrus.Fields{
		"remote":  r.RemoteAddr,
		"episode": episode,
		"agent":   kind,
	})
	log.Info("agent connected")

	remote := NewRemoteAgent(conn)
	record, err := s.platform.Evaluate(r.Context(), platform.EvaluationConfig{
		Scape:      s.scapeFor(seed),
		Agent:      remote,
		AgentKind:  kind,
		Seed:       seed,
		TurnLogDir: s.opts.TurnLogDir,
		Observer:   remote.Observe,
	})
	if err != nil {
		log.WithError(err).Warn("episode aborted")
		_ = writeJSON(conn, ErrorMsg{Type: TypeError, ProtocolVersion: Version, Message: err.Error()})
		closeWith(conn, websocket.CloseInternalServerErr, "episode aborted")
		return
	}

	if err := writeJSON(conn, ResultMsg{
		Type:            TypeResult,
		ProtocolVersion: Version,
		RunID:           record.ID,
		Score:           record.Score,
		Outcome:         record.Outcome,
		Turns:           record.Turns,
		Hazard:          record.Hazard,
	}); err != nil {
		log.WithError(err).Warn("send result failed")
		return
	}
	closeWith(conn, websocket.CloseNormalClosure, "")
	log.WithFields(logrus.Fields{
		"run_id":  record.ID,
		"score":   record.Score,
		"outcome": record.Outcome,
	}).Info("agent finished")
}

func (s *Server) scapeFor(seed int64) scape.Scape {
	if s.opts.World != "" {
		return scape.FileScape{Path: s.opts.World, MaxTurns: s.opts.MaxTurns}
	}
	return scape.WumpusScape{Width: s.opts.Width, Height: s.opts.Height, Seed: seed, MaxTurns: s.opts.MaxTurns}
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		logger.Log.WithError(err).WithField("code", code).Debug("close frame not sent")
	}
}
