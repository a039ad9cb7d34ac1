package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/courselet/internal/logging"
	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/ports"
)

// Coordinator runs the instructor side of live sessions and records student input.
// Students never read each other's state; they pull the shared records on every request.
type Coordinator struct {
	repo   ports.LiveRepository
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// WithIDGenerator overrides the uuid-based id generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *Coordinator) {
		c.newID = fn
	}
}

// NewCoordinator creates a coordinator over repo.
func NewCoordinator(repo ports.LiveRepository, opts ...Option) *Coordinator {
	c := &Coordinator{
		repo:   repo,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Repository exposes the underlying store.
func (c *Coordinator) Repository() ports.LiveRepository { return c.repo }

// StartSession opens a live session on a unit.
func (c *Coordinator) StartSession(ctx context.Context, unitID, instructorID string) (*domain.LiveSession, error) {
	if unitID == "" || instructorID == "" {
		return nil, fmt.Errorf("%w: unit and instructor are required", domain.ErrInvalidInput)
	}
	s := &domain.LiveSession{
		ID:           c.newID(),
		UnitID:       unitID,
		InstructorID: instructorID,
		StartedAt:    c.now(),
	}
	if err := c.repo.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("create live session: %w", err)
	}
	c.logger.Info("live session started", "session", s.ID, "unit", unitID, "instructor", instructorID)
	return s, nil
}

// Session returns the current record of a session.
func (c *Coordinator) Session(ctx context.Context, id string) (*domain.LiveSession, error) {
	return c.repo.Session(ctx, id)
}

// Question returns the current record of a question.
func (c *Coordinator) Question(ctx context.Context, id string) (*domain.LiveQuestion, error) {
	return c.repo.Question(ctx, id)
}

// StartQuestion presents a new question at stage START. A still-open previous
// question is ended first.
func (c *Coordinator) StartQuestion(ctx context.Context, sessionID, title, unitLessonID string) (*domain.LiveQuestion, error) {
	s, err := c.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.CurrentQuestionID != "" {
		if err := c.endIfOpen(ctx, s.CurrentQuestionID); err != nil {
			return nil, err
		}
	}

	now := c.now()
	q := &domain.LiveQuestion{
		ID:             c.newID(),
		SessionID:      s.ID,
		UnitLessonID:   unitLessonID,
		Title:          title,
		Stage:          domain.StageStart,
		StageStartedAt: now,
		CreatedAt:      now,
	}
	if err := c.repo.CreateQuestion(ctx, q); err != nil {
		return nil, fmt.Errorf("create live question: %w", err)
	}
	s.CurrentQuestionID = q.ID
	if err := c.repo.UpdateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("update live session: %w", err)
	}
	c.logger.Info("live question started", "session", s.ID, "question", q.ID)
	return q, nil
}

// AdvanceToResponse opens the question for answers.
func (c *Coordinator) AdvanceToResponse(ctx context.Context, questionID string) (*domain.LiveQuestion, error) {
	return c.move(ctx, questionID, MoveOpenResponses)
}

// AdvanceToAssessment lets students compare their answers with the expected one.
func (c *Coordinator) AdvanceToAssessment(ctx context.Context, questionID string) (*domain.LiveQuestion, error) {
	return c.move(ctx, questionID, MoveOpenAssessment)
}

// EndQuestion closes the question.
func (c *Coordinator) EndQuestion(ctx context.Context, questionID string) (*domain.LiveQuestion, error) {
	return c.move(ctx, questionID, MoveEnd)
}

// EndSession sets the end marker. Students leave the session on their next request.
func (c *Coordinator) EndSession(ctx context.Context, sessionID string) (*domain.LiveSession, error) {
	s, err := c.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.CurrentQuestionID != "" {
		if err := c.endIfOpen(ctx, s.CurrentQuestionID); err != nil {
			return nil, err
		}
	}
	ended := c.now()
	s.EndedAt = &ended
	if err := c.repo.UpdateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("update live session: %w", err)
	}
	c.logger.Info("live session ended", "session", s.ID)
	return s, nil
}

// Respond records (or replaces) a student's answer.
func (c *Coordinator) Respond(ctx context.Context, questionID, userID, text string, confidence domain.Confidence) (*domain.Response, error) {
	q, err := c.repo.Question(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q.Stage == domain.StageEnded {
		return nil, &domain.StageError{QuestionID: q.ID, From: q.Stage, Event: "respond"}
	}
	if text == "" {
		return nil, fmt.Errorf("%w: answer text is required", domain.ErrInvalidInput)
	}
	if _, err := domain.ParseConfidence(string(confidence)); err != nil {
		return nil, err
	}
	r := &domain.Response{
		QuestionID:  q.ID,
		UserID:      userID,
		Text:        text,
		Confidence:  confidence,
		SubmittedAt: c.now(),
	}
	if err := c.repo.SaveResponse(ctx, r); err != nil {
		return nil, fmt.Errorf("save response: %w", err)
	}
	return r, nil
}

// SelfAssess records a student's comparison of their answer with the expected one.
func (c *Coordinator) SelfAssess(ctx context.Context, questionID, userID string, eval domain.SelfEval, status domain.ResponseStatus) (*domain.Response, error) {
	if _, err := domain.ParseSelfEval(string(eval)); err != nil {
		return nil, err
	}
	if _, err := domain.ParseStatus(string(status)); err != nil {
		return nil, err
	}
	r, err := c.repo.Response(ctx, questionID, userID)
	if err != nil {
		return nil, err
	}
	r.SelfEval = eval
	r.Status = status
	if err := c.repo.SaveResponse(ctx, r); err != nil {
		return nil, fmt.Errorf("save response: %w", err)
	}
	return r, nil
}

// ResponseOf returns the user's response, or nil when there is none.
func (c *Coordinator) ResponseOf(ctx context.Context, questionID, userID string) (*domain.Response, error) {
	r, err := c.repo.Response(ctx, questionID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return r, err
}

func (c *Coordinator) move(ctx context.Context, questionID, move string) (*domain.LiveQuestion, error) {
	q, err := c.repo.Question(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if err := advance(ctx, q, move, c.now()); err != nil {
		return nil, err
	}
	if err := c.repo.UpdateQuestion(ctx, q); err != nil {
		return nil, fmt.Errorf("update live question: %w", err)
	}
	c.logger.Info("live question advanced", "question", q.ID, "stage", q.Stage)
	return q, nil
}

func (c *Coordinator) endIfOpen(ctx context.Context, questionID string) error {
	q, err := c.repo.Question(ctx, questionID)
	if err != nil {
		return err
	}
	if q.Stage == domain.StageEnded {
		return nil
	}
	_, err = c.move(ctx, questionID, MoveEnd)
	return err
}

func (c *Coordinator) openSession(ctx context.Context, id string) (*domain.LiveSession, error) {
	s, err := c.repo.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Ended() {
		return nil, fmt.Errorf("%w: live session %s has ended", domain.ErrInvalidStage, id)
	}
	return s, nil
}
