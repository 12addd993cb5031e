package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/smallnest/ragagent/agent"
	"github.com/smallnest/ragagent/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsIncoming is a message from the client.
type wsIncoming struct {
	Text string `json:"text"`
}

// wsFrame is one streamed fragment sent to the client.
type wsFrame struct {
	Delta   string          `json:"delta,omitempty"`
	Reset   bool            `json:"reset,omitempty"`
	Done    bool            `json:"done,omitempty"`
	Answer  string          `json:"answer,omitempty"`
	Outcome agent.ErrorKind `json:"outcome,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := store.CheckID("stream", id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Reads happen on their own goroutine so a disconnect cancels the
	// running turn.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inbound := make(chan wsIncoming)
	go func() {
		defer cancel()
		defer close(inbound)
		for {
			var msg wsIncoming
			if err := conn.ReadJSON(&msg); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Debug("websocket read for session %s ended: %v", id, err)
				}
				return
			}
			select {
			case inbound <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for msg := range inbound {
		for f := range s.session.Stream(ctx, id, msg.Text) {
			if err := conn.WriteJSON(toFrame(f)); err != nil {
				s.logger.Warn("websocket write for session %s failed: %v", id, err)
				return
			}
		}
	}
}

func toFrame(f agent.Fragment) wsFrame {
	frame := wsFrame{
		Delta:   f.Delta,
		Reset:   f.Reset,
		Done:    f.Done,
		Answer:  f.Answer,
		Outcome: f.Outcome,
	}
	switch {
	case f.Err == nil:
	case errors.Is(f.Err, agent.ErrEmptyMessage):
		frame.Error = "text is required"
	case agent.KindOf(f.Err) == agent.KindCancelled:
		frame.Error = "request cancelled"
	default:
		frame.Error = "conversation storage unavailable"
	}
	return frame
}
