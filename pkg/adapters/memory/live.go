package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/courselet/pkg/domain"
)

// LiveRepository implements ports.LiveRepository in memory.
// Records are copied in and out so callers never share pointers with the store.
type LiveRepository struct {
	mu        sync.Mutex
	sessions  map[string]domain.LiveSession
	questions map[string]domain.LiveQuestion
	responses map[string]map[string]domain.Response
}

// NewLiveRepository creates an empty repository.
func NewLiveRepository() *LiveRepository {
	return &LiveRepository{
		sessions:  make(map[string]domain.LiveSession),
		questions: make(map[string]domain.LiveQuestion),
		responses: make(map[string]map[string]domain.Response),
	}
}

func copySession(s domain.LiveSession) *domain.LiveSession {
	s.ActiveUsers = append([]string(nil), s.ActiveUsers...)
	if s.EndedAt != nil {
		t := *s.EndedAt
		s.EndedAt = &t
	}
	return &s
}

func (r *LiveRepository) CreateSession(_ context.Context, s *domain.LiveSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *copySession(*s)
	return nil
}

func (r *LiveRepository) Session(_ context.Context, id string) (*domain.LiveSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: string(domain.KindLiveSession), Name: id}
	}
	return copySession(s), nil
}

// UpdateSession replaces the session fields but keeps the stored active-user registry,
// which only Join and Leave change.
func (r *LiveRepository) UpdateSession(_ context.Context, s *domain.LiveSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.sessions[s.ID]
	if !ok {
		return &domain.NotFoundError{Kind: string(domain.KindLiveSession), Name: s.ID}
	}
	next := *copySession(*s)
	next.ActiveUsers = cur.ActiveUsers
	r.sessions[s.ID] = next
	return nil
}

func (r *LiveRepository) Join(_ context.Context, sessionID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return &domain.NotFoundError{Kind: string(domain.KindLiveSession), Name: sessionID}
	}
	if s.IsActive(userID) {
		return nil
	}
	s.ActiveUsers = append(append([]string(nil), s.ActiveUsers...), userID)
	r.sessions[sessionID] = s
	return nil
}

func (r *LiveRepository) Leave(_ context.Context, sessionID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return &domain.NotFoundError{Kind: string(domain.KindLiveSession), Name: sessionID}
	}
	kept := make([]string, 0, len(s.ActiveUsers))
	for _, u := range s.ActiveUsers {
		if u != userID {
			kept = append(kept, u)
		}
	}
	s.ActiveUsers = kept
	r.sessions[sessionID] = s
	return nil
}

func (r *LiveRepository) CreateQuestion(_ context.Context, q *domain.LiveQuestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions[q.ID] = *q
	return nil
}

func (r *LiveRepository) Question(_ context.Context, id string) (*domain.LiveQuestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: string(domain.KindLiveQuestion), Name: id}
	}
	return &q, nil
}

func (r *LiveRepository) UpdateQuestion(_ context.Context, q *domain.LiveQuestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[q.ID]; !ok {
		return &domain.NotFoundError{Kind: string(domain.KindLiveQuestion), Name: q.ID}
	}
	r.questions[q.ID] = *q
	return nil
}

func (r *LiveRepository) SaveResponse(_ context.Context, resp *domain.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byUser, ok := r.responses[resp.QuestionID]
	if !ok {
		byUser = make(map[string]domain.Response)
		r.responses[resp.QuestionID] = byUser
	}
	byUser[resp.UserID] = *resp
	return nil
}

func (r *LiveRepository) Response(_ context.Context, questionID, userID string) (*domain.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	resp, ok := r.responses[questionID][userID]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "response", Name: userID, In: questionID}
	}
	return &resp, nil
}

func (r *LiveRepository) Responses(_ context.Context, questionID string) ([]*domain.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Response, 0, len(r.responses[questionID]))
	for _, resp := range r.responses[questionID] {
		cp := resp
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}
