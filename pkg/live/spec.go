package live

import (
	"context"
	"fmt"

	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/dsl"
	"github.com/aretw0/courselet/pkg/registry"
)

// SpecName is the name of the live specification pushed over a student's browsing.
const SpecName = "live"

// Student events understood by the live flow. Any other event just re-syncs.
const (
	EventRespond = "respond"
	EventAssess  = "assess"
	EventJoin    = "join"
)

// Live flow nodes.
const (
	NodeStart   = "START"
	NodeRespond = "RESPOND"
	NodeAssess  = "ASSESS"
	NodeWait    = "WAIT"
	NodeJoin    = "JOIN"
	NodeDone    = "DONE"
)

// NewSpec builds the student side of a live session. Every node shares one
// behavior that intercepts all events, so the declared edges only document the
// usual progression.
func NewSpec(c *Coordinator) (*domain.Specification, error) {
	p := &protocol{coord: c}
	return dsl.New(SpecName).
		Title("Live session").
		HideTabs().
		Add(NodeStart).Title("Joining live session").Path("live_wait").Behavior(p).
		Add(NodeRespond).Title("Answer the question").Path("live_respond").Behavior(p).
		On(EventRespond, NodeWait, "Submit answer").
		Add(NodeWait).Title("Wait for the instructor").Path("live_wait").Behavior(p).
		Add(NodeAssess).Title("Assess your answer").Path("live_assess").Behavior(p).
		On(EventAssess, NodeDone, "Submit self-assessment").
		Add(NodeJoin).Title("A new question is live").Path("live_join").Behavior(p).
		On(EventJoin, NodeRespond, "Join the question").
		Add(NodeDone).Title("Results").Path("live_done").Behavior(p).
		Build()
}

// Provider registers the live specification.
func Provider(c *Coordinator) registry.Provider {
	return func() ([]*domain.Specification, error) {
		spec, err := NewSpec(c)
		if err != nil {
			return nil, err
		}
		return []*domain.Specification{spec}, nil
	}
}

type protocol struct {
	coord *Coordinator
}

// HandleEvent synchronizes the student with the shared session on every request.
func (p *protocol) HandleEvent(ctx context.Context, call *domain.Call) (domain.Outcome, error) {
	sessionID, ok := call.State.Get(domain.KeyLiveSession)
	if !ok || sessionID == "" {
		return domain.Outcome{}, &domain.NotFoundError{Kind: string(domain.KindLiveSession), Name: sessionID}
	}
	// Always read the shared record; the rehydrated copy may predate instructor moves.
	sess, err := p.coord.Session(ctx, sessionID)
	if err != nil {
		return domain.Outcome{}, err
	}
	user := call.Request.UserID

	if sess.Ended() {
		if err := p.coord.repo.Leave(ctx, sess.ID, user); err != nil {
			return domain.Outcome{}, fmt.Errorf("leave live session: %w", err)
		}
		p.coord.logger.Debug("student left ended session", "session", sess.ID, "user", user)
		return domain.PopFlow(), nil
	}
	if err := call.State.Bind(domain.KeyLiveSession, sess.ID, sess); err != nil {
		return domain.Outcome{}, err
	}
	if !sess.IsActive(user) {
		if err := p.coord.repo.Join(ctx, sess.ID, user); err != nil {
			return domain.Outcome{}, fmt.Errorf("join live session: %w", err)
		}
	}

	lastSeen, _ := call.State.Get(domain.KeyLiveQuestion)
	replaced := lastSeen != "" && sess.CurrentQuestionID != "" && lastSeen != sess.CurrentQuestionID
	if replaced && isSubmission(call.Event) {
		// The question the student worked on is closed; they get the join prompt.
		p.coord.logger.Debug("submission to replaced question ignored",
			"session", sess.ID, "user", user, "question", lastSeen, "event", call.Event)
	} else if err := p.act(ctx, call, sess, lastSeen); err != nil {
		return domain.Outcome{}, err
	}

	if sess.CurrentQuestionID == "" {
		return p.moveTo(call, NodeWait)
	}
	q, err := p.coord.Question(ctx, sess.CurrentQuestionID)
	if err != nil {
		return domain.Outcome{}, err
	}
	if err := call.State.Bind(domain.KeyLiveQuestion, q.ID, q); err != nil {
		return domain.Outcome{}, err
	}
	if lastSeen != "" && lastSeen != q.ID {
		return p.moveTo(call, NodeJoin)
	}

	resp, err := p.coord.ResponseOf(ctx, q.ID, user)
	if err != nil {
		return domain.Outcome{}, err
	}
	switch domain.UserStage(resp) {
	case domain.StageStart:
		return p.moveTo(call, NodeRespond)
	case domain.StageResponse:
		if q.Stage.AtLeast(domain.StageAssessment) {
			return p.moveTo(call, NodeAssess)
		}
		return p.moveTo(call, NodeWait)
	default:
		return p.moveTo(call, NodeDone)
	}
}

// act applies a student's submission to the question they were looking at.
func (p *protocol) act(ctx context.Context, call *domain.Call, sess *domain.LiveSession, lastSeen string) error {
	questionID := lastSeen
	if questionID == "" {
		questionID = sess.CurrentQuestionID
	}
	switch call.Event {
	case EventRespond:
		if questionID == "" {
			return fmt.Errorf("%w: no question to answer", domain.ErrInvalidInput)
		}
		confidence, err := domain.ParseConfidence(call.Extra.String("confidence"))
		if err != nil {
			return err
		}
		_, err = p.coord.Respond(ctx, questionID, call.Request.UserID, call.Extra.String("text"), confidence)
		return err
	case EventAssess:
		if questionID == "" {
			return fmt.Errorf("%w: no question to assess", domain.ErrInvalidInput)
		}
		eval, err := domain.ParseSelfEval(call.Extra.String("selfeval"))
		if err != nil {
			return err
		}
		status, err := domain.ParseStatus(call.Extra.String("status"))
		if err != nil {
			return err
		}
		_, err = p.coord.SelfAssess(ctx, questionID, call.Request.UserID, eval, status)
		return err
	}
	return nil
}

func isSubmission(event string) bool {
	return event == EventRespond || event == EventAssess
}

func (p *protocol) moveTo(call *domain.Call, name string) (domain.Outcome, error) {
	n, err := call.Spec().Node(name)
	if err != nil {
		return domain.Outcome{}, err
	}
	return domain.MoveTo(n), nil
}
