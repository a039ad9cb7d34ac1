package live

import (
	"context"
	"time"

	"github.com/looplab/fsm"

	"github.com/aretw0/courselet/pkg/domain"
)

// Instructor moves of a live question.
const (
	MoveOpenResponses  = "open_responses"
	MoveOpenAssessment = "open_assessment"
	MoveEnd            = "end"
)

var stageEvents = fsm.Events{
	{Name: MoveOpenResponses, Src: []string{string(domain.StageStart)}, Dst: string(domain.StageResponse)},
	{Name: MoveOpenAssessment, Src: []string{string(domain.StageResponse)}, Dst: string(domain.StageAssessment)},
	{Name: MoveEnd, Src: []string{
		string(domain.StageStart),
		string(domain.StageResponse),
		string(domain.StageAssessment),
	}, Dst: string(domain.StageEnded)},
}

// advance applies move to q, stamping StageStartedAt on success.
func advance(ctx context.Context, q *domain.LiveQuestion, move string, now time.Time) error {
	from := q.Stage
	machine := fsm.NewFSM(string(from), stageEvents, fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			q.Stage = domain.Stage(e.Dst)
			q.StageStartedAt = now
		},
	})
	if err := machine.Event(ctx, move); err != nil {
		return &domain.StageError{QuestionID: q.ID, From: from, Event: move, Err: err}
	}
	return nil
}

// CanAdvance reports whether move is legal from the question's current stage.
func CanAdvance(q *domain.LiveQuestion, move string) bool {
	return fsm.NewFSM(string(q.Stage), stageEvents, nil).Can(move)
}
