package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/courselet/pkg/domain"
)

// Notice is broadcast to students following a live session whenever the
// instructor changes it. Clients react by dispatching a sync event.
type Notice struct {
	Kind     string       `json:"kind"` // "question", "stage" or "ended"
	Session  string       `json:"session"`
	Question string       `json:"question,omitempty"`
	Stage    domain.Stage `json:"stage,omitempty"`
}

func (s *Server) liveRoutes(r chi.Router) {
	r.Post("/sessions", s.StartLiveSession)
	r.Get("/sessions/{session}", s.GetLiveSession)
	r.Post("/sessions/{session}/end", s.EndLiveSession)
	r.Post("/sessions/{session}/questions", s.StartLiveQuestion)
	r.Get("/sessions/{session}/events", s.SubscribeEvents)
	r.Get("/questions/{question}", s.GetLiveQuestion)
	r.Post("/questions/{question}/stage/{move}", s.MoveLiveQuestion)
	r.Get("/questions/{question}/summary", s.SummarizeLiveQuestion)
}

type startSessionBody struct {
	Unit       string `json:"unit"`
	Instructor string `json:"instructor"`
}

// StartLiveSession handles POST /v1/live/sessions.
func (s *Server) StartLiveSession(w http.ResponseWriter, r *http.Request) {
	var body startSessionBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Instructor == "" {
		body.Instructor = r.Header.Get(UserHeader)
	}
	if body.Unit == "" || body.Instructor == "" {
		s.writeError(w, r, fmt.Errorf("%w: unit and instructor are required", domain.ErrInvalidInput))
		return
	}
	sess, err := s.coordinator.StartSession(r.Context(), body.Unit, body.Instructor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sess)
}

// GetLiveSession handles GET /v1/live/sessions/{session}.
func (s *Server) GetLiveSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam[string](r, "session")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.coordinator.Session(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// EndLiveSession handles POST /v1/live/sessions/{session}/end.
func (s *Server) EndLiveSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam[string](r, "session")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.coordinator.EndSession(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.notify(Notice{Kind: "ended", Session: sess.ID})
	s.writeJSON(w, http.StatusOK, sess)
}

type startQuestionBody struct {
	Title      string `json:"title"`
	UnitLesson string `json:"unitLesson"`
}

// StartLiveQuestion handles POST /v1/live/sessions/{session}/questions.
func (s *Server) StartLiveQuestion(w http.ResponseWriter, r *http.Request) {
	var body startQuestionBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(body.Title) == "" {
		s.writeError(w, r, fmt.Errorf("%w: title is required", domain.ErrInvalidInput))
		return
	}
	id, err := pathParam[string](r, "session")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q, err := s.coordinator.StartQuestion(r.Context(), id, body.Title, body.UnitLesson)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.notify(Notice{Kind: "question", Session: q.SessionID, Question: q.ID, Stage: q.Stage})
	s.writeJSON(w, http.StatusCreated, q)
}

// GetLiveQuestion handles GET /v1/live/questions/{question}.
func (s *Server) GetLiveQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam[string](r, "question")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q, err := s.coordinator.Question(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, q)
}

// MoveLiveQuestion handles POST /v1/live/questions/{question}/stage/{move}
// where move is response, assessment or end.
func (s *Server) MoveLiveQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam[string](r, "question")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	move, err := pathParam[StageMove](r, "move")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var q *domain.LiveQuestion
	switch move {
	case MoveResponse:
		q, err = s.coordinator.AdvanceToResponse(r.Context(), id)
	case MoveAssessment:
		q, err = s.coordinator.AdvanceToAssessment(r.Context(), id)
	case MoveEnd:
		q, err = s.coordinator.EndQuestion(r.Context(), id)
	default:
		err = fmt.Errorf("%w: unknown stage move %q", domain.ErrInvalidInput, move)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.notify(Notice{Kind: "stage", Session: q.SessionID, Question: q.ID, Stage: q.Stage})
	s.writeJSON(w, http.StatusOK, q)
}

// SummarizeLiveQuestion handles GET /v1/live/questions/{question}/summary.
func (s *Server) SummarizeLiveQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam[string](r, "question")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sum, err := s.coordinator.Summarize(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sum)
}

// SubscribeEvents handles GET /v1/live/sessions/{session}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		s.logger.Error("sse: streaming not supported")
		return
	}
	sessionID, err := pathParam[string](r, "session")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.coordinator.Session(r.Context(), sessionID); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
	s.logger.Info("sse: subscribed", "session", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("sse: client disconnected", "session", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: live\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) notify(n Notice) {
	b, err := json.Marshal(n)
	if err != nil {
		s.logger.Error("encode live notice", "err", err)
		return
	}
	s.Streams.Broadcast(n.Session, string(b))
}
