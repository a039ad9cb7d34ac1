package live

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/courselet/pkg/domain"
)

// Count is one cell of an instructor summary.
type Count struct {
	Label   string  `json:"label"`
	N       int     `json:"n"`
	Percent float64 `json:"percent,omitempty"`
}

// String renders "n (p%)".
func (c Count) String() string {
	return fmt.Sprintf("%d (%.0f%%)", c.N, c.Percent)
}

// EvalRow is the self-evaluation breakdown of one confidence level.
type EvalRow struct {
	Confidence domain.Confidence `json:"confidence"`
	Cells      []Count           `json:"cells"`
}

// Summary is the instructor's aggregate view of a live question.
type Summary struct {
	Question  *domain.LiveQuestion `json:"question"`
	Elapsed   string               `json:"elapsed"`
	Active    int                  `json:"active"`
	Responses int                  `json:"responses"`
	Assessed  int                  `json:"assessed"`

	// Confidence counts guess, unsure, sure, then active users who have not answered.
	Confidence []Count `json:"confidence"`
	// Status counts self-assessed responses per status, then responses not yet assessed.
	// Percentages are of all responses.
	Status []Count `json:"status"`
	// SelfEval crosses confidence with self-evaluation; percentages are of assessed
	// responses. Empty until someone has self-assessed.
	SelfEval []EvalRow `json:"selfeval,omitempty"`
}

// FormatElapsed renders a duration as m:ss.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}

// Summarize aggregates the responses to a question.
func (c *Coordinator) Summarize(ctx context.Context, questionID string) (*Summary, error) {
	q, err := c.repo.Question(ctx, questionID)
	if err != nil {
		return nil, err
	}
	sess, err := c.repo.Session(ctx, q.SessionID)
	if err != nil {
		return nil, err
	}
	responses, err := c.repo.Responses(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	return summarize(q, len(sess.ActiveUsers), responses, c.now()), nil
}

func summarize(q *domain.LiveQuestion, active int, responses []*domain.Response, now time.Time) *Summary {
	s := &Summary{
		Question:  q,
		Elapsed:   FormatElapsed(now.Sub(q.StageStartedAt)),
		Active:    active,
		Responses: len(responses),
	}

	byConf := make(map[domain.Confidence]int)
	byStatus := make(map[domain.ResponseStatus]int)
	byEval := make(map[domain.Confidence]map[domain.SelfEval]int)
	for _, r := range responses {
		byConf[r.Confidence]++
		if r.SelfEval == "" {
			continue
		}
		s.Assessed++
		byStatus[r.Status]++
		if byEval[r.Confidence] == nil {
			byEval[r.Confidence] = make(map[domain.SelfEval]int)
		}
		byEval[r.Confidence][r.SelfEval]++
	}

	answered := 0
	for _, conf := range domain.Confidences {
		n := byConf[conf]
		answered += n
		s.Confidence = append(s.Confidence, Count{Label: string(conf), N: n})
	}
	missing := active - answered
	if missing < 0 {
		missing = 0
	}
	s.Confidence = append(s.Confidence, Count{Label: "not responded", N: missing})

	for _, st := range domain.Statuses {
		s.Status = append(s.Status, Count{Label: string(st), N: byStatus[st], Percent: percent(byStatus[st], s.Responses)})
	}
	pending := s.Responses - s.Assessed
	s.Status = append(s.Status, Count{Label: "not assessed", N: pending, Percent: percent(pending, s.Responses)})

	if s.Assessed > 0 {
		for _, conf := range domain.Confidences {
			row := EvalRow{Confidence: conf}
			for _, ev := range domain.SelfEvals {
				n := byEval[conf][ev]
				row.Cells = append(row.Cells, Count{Label: string(ev), N: n, Percent: percent(n, s.Assessed)})
			}
			s.SelfEval = append(s.SelfEval, row)
		}
	}
	return s
}

func percent(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return float64(n) * 100 / float64(of)
}
