package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/p-n-ai/trivia/internal/trivia"
)

const (
	playStart  = "start"
	playNext   = "next"
	playAnswer = "answer"

	replyQuestion = "question"
	replyResult   = "result"
	replyDone     = "done"
	replyError    = "error"
)

type playRequest struct {
	Type     string  `json:"type"`
	Category flexInt `json:"category"`
	Answer   string  `json:"answer"`
}

// playQuestion is a question with its answer withheld.
type playQuestion struct {
	ID         int    `json:"id"`
	Question   string `json:"question"`
	Category   int    `json:"category"`
	Difficulty int    `json:"difficulty"`
}

type playReply struct {
	Type     string        `json:"type"`
	Question *playQuestion `json:"question,omitempty"`
	Correct  *bool         `json:"correct,omitempty"`
	Answer   string        `json:"answer,omitempty"`
	Score    int           `json:"score"`
	Asked    int           `json:"asked"`
	Message  string        `json:"message,omitempty"`
}

// handlePlay runs an interactive quiz over a websocket. The server tracks
// which questions were asked, so clients only send start, next and answer.
func (s *server) handlePlay(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(s.allowedOrigins),
	})
	if err != nil {
		slog.Info("websocket upgrade failed", "request_id", requestID(r.Context()), "error", err)
		return
	}
	defer c.CloseNow()

	ctx := r.Context()
	p := &player{svc: s.svc, id: uuid.NewString(), maxQuestions: s.quizMaxQuestions}
	slog.Info("quiz session opened", "session_id", p.id)

	for {
		var req playRequest
		if err := wsjson.Read(ctx, c, &req); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				slog.Debug("quiz session read ended", "session_id", p.id, "error", err)
			}
			return
		}

		reply := p.handle(ctx, req)
		if err := wsjson.Write(ctx, c, reply); err != nil {
			slog.Debug("quiz session write failed", "session_id", p.id, "error", err)
			return
		}
		if reply.Type == replyDone {
			slog.Info("quiz session finished", "session_id", p.id, "score", reply.Score, "asked", reply.Asked)
			c.Close(websocket.StatusNormalClosure, "quiz finished")
			return
		}
	}
}

// player adapts websocket messages to a trivia.Session.
type player struct {
	svc          *trivia.Service
	id           string
	maxQuestions int
	session      *trivia.Session
}

func (p *player) handle(ctx context.Context, req playRequest) playReply {
	switch req.Type {
	case playStart:
		sess, err := p.svc.NewSession(ctx, p.id, int(req.Category), p.maxQuestions)
		if err != nil {
			return errorReply(err)
		}
		p.session = sess
		return p.next(ctx)
	case playNext:
		if p.session == nil {
			return playReply{Type: replyError, Message: "send start first"}
		}
		return p.next(ctx)
	case playAnswer:
		if p.session == nil {
			return playReply{Type: replyError, Message: "send start first"}
		}
		res, err := p.session.Answer(ctx, req.Answer)
		if err != nil {
			return errorReply(err)
		}
		return playReply{
			Type:    replyResult,
			Correct: &res.Correct,
			Answer:  res.Answer,
			Score:   res.Score,
			Asked:   res.Asked,
		}
	default:
		return playReply{Type: replyError, Message: "unknown message type"}
	}
}

func (p *player) next(ctx context.Context) playReply {
	q, err := p.session.Next(ctx)
	if errors.Is(err, trivia.ErrNoQuestionsLeft) {
		return playReply{Type: replyDone, Score: p.session.Score(), Asked: p.session.Asked()}
	}
	if err != nil {
		return errorReply(err)
	}
	return playReply{
		Type: replyQuestion,
		Question: &playQuestion{
			ID:         q.ID,
			Question:   q.Question,
			Category:   q.Category,
			Difficulty: q.Difficulty,
		},
		Score: p.session.Score(),
		Asked: p.session.Asked(),
	}
}

func errorReply(err error) playReply {
	switch {
	case errors.Is(err, trivia.ErrNotFound):
		return playReply{Type: replyError, Message: "resource not found"}
	case errors.Is(err, trivia.ErrInvalid):
		return playReply{Type: replyError, Message: "bad request"}
	case errors.Is(err, trivia.ErrNoActiveQuestion):
		return playReply{Type: replyError, Message: "no question pending"}
	default:
		slog.Error("quiz session error", "error", err)
		return playReply{Type: replyError, Message: "server_error"}
	}
}

// originPatterns converts CORS origins ("https://host:port") to the host
// patterns websocket.Accept matches against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, o)
	}
	return patterns
}
