package agent

import (
	"context"
)

// Fragment is one piece of a streamed turn. Intermediate fragments carry
// answer text in Delta. A fragment with Reset set withdraws all text
// delivered since the previous Reset, so the deltas a reader keeps always add
// up to Answer. The final fragment has Done set and carries either the full
// Answer and Outcome or Err.
type Fragment struct {
	Delta   string    `json:"delta,omitempty"`
	Reset   bool      `json:"reset,omitempty"`
	Done    bool      `json:"done,omitempty"`
	Answer  string    `json:"answer,omitempty"`
	Outcome ErrorKind `json:"outcome,omitempty"`
	Err     error     `json:"-"`
}

// Stream runs a turn and returns its fragments. The turn starts when Stream
// is called; the channel is closed after the Done fragment. Callers must
// drain the channel or cancel ctx.
//
// If the model cannot stream, or the answer was synthesized after a failure,
// the answer arrives as a single Delta before the Done fragment.
func (s *Session) Stream(ctx context.Context, sessionID, text string) <-chan Fragment {
	out := make(chan Fragment, 16)

	go func() {
		defer close(out)

		send := func(f Fragment) bool {
			select {
			case out <- f:
				return true
			case <-ctx.Done():
				return false
			}
		}

		res, err := s.submit(ctx, sessionID, text, func(delta string, discard bool) {
			switch {
			case discard:
				send(Fragment{Reset: true})
			case delta != "":
				send(Fragment{Delta: delta})
			}
		})
		if err != nil {
			final := Fragment{Done: true, Err: err}
			if !send(final) {
				// Still tell a reader that is draining why the stream ended.
				select {
				case out <- final:
				default:
				}
			}
			return
		}

		if !res.streamed {
			if !send(Fragment{Delta: res.Answer}) {
				return
			}
		}
		send(Fragment{Done: true, Answer: res.Answer, Outcome: res.Outcome})
	}()

	return out
}
