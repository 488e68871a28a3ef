package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/hexforge/internal/mapgen"
	"github.com/talgya/hexforge/internal/world"
)

const streamRequestTimeout = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowedOrigins()[origin]
	},
}

// streamMessage is one frame of a generation stream: a "stage" event per
// finished stage, then "done" with the preview, or "error".
type streamMessage struct {
	Type     string            `json:"type"`
	Event    *mapgen.Event     `json:"event,omitempty"`
	Seed     int64             `json:"seed,omitempty"`
	Preview  *world.Preview    `json:"preview,omitempty"`
	Unplaced []mapgen.Unplaced `json:"unplaced,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// handleStream upgrades to a websocket, reads one generation request and
// reports each stage as it finishes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxBodyBytes)
	conn.SetReadDeadline(time.Now().Add(streamRequestTimeout))

	fail := func(msg string) {
		conn.WriteJSON(streamMessage{Type: "error", Error: msg})
	}

	req := defaultRequest()
	if err := conn.ReadJSON(&req); err != nil {
		fail("invalid request: " + err.Error())
		return
	}
	if err := req.validate(); err != nil {
		fail(err.Error())
		return
	}

	var writeErr error
	res, err := s.generate(req, func(e mapgen.Event) {
		if writeErr == nil {
			writeErr = conn.WriteJSON(streamMessage{Type: "stage", Event: &e})
		}
	})
	if err != nil {
		slog.Warn("stream generation failed", "error", err)
		fail(err.Error())
		return
	}
	if writeErr != nil {
		slog.Info("stream client went away", "error", writeErr)
		return
	}

	preview := res.Map.Preview()
	if err := conn.WriteJSON(streamMessage{Type: "done", Seed: res.Seed, Preview: &preview, Unplaced: res.Unplaced}); err != nil {
		return
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
