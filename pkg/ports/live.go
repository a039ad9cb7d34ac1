package ports

import (
	"context"

	"github.com/aretw0/courselet/pkg/domain"
)

// LiveRepository stores the records shared by an instructor and the students of a
// live session. Each method is atomic for the single record it touches.
type LiveRepository interface {
	CreateSession(ctx context.Context, s *domain.LiveSession) error
	Session(ctx context.Context, id string) (*domain.LiveSession, error)
	UpdateSession(ctx context.Context, s *domain.LiveSession) error

	// Join and Leave maintain the session's active-user registry. Both are idempotent.
	Join(ctx context.Context, sessionID, userID string) error
	Leave(ctx context.Context, sessionID, userID string) error

	CreateQuestion(ctx context.Context, q *domain.LiveQuestion) error
	Question(ctx context.Context, id string) (*domain.LiveQuestion, error)
	UpdateQuestion(ctx context.Context, q *domain.LiveQuestion) error

	// SaveResponse inserts or replaces the response of (QuestionID, UserID).
	SaveResponse(ctx context.Context, r *domain.Response) error
	// Response returns domain.ErrNotFound when the user has not answered.
	Response(ctx context.Context, questionID, userID string) (*domain.Response, error)
	Responses(ctx context.Context, questionID string) ([]*domain.Response, error)
}
