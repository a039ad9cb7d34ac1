package domain

import (
	"fmt"
	"time"
)

// EntityKind names a resolvable entity type referenced from the state bag.
type EntityKind string

const (
	KindUnit         EntityKind = "unit"
	KindUnitLesson   EntityKind = "unit_lesson"
	KindLiveSession  EntityKind = "live_session"
	KindLiveQuestion EntityKind = "live_question"
)

// Unit is a courselet: an ordered sequence of lessons.
type Unit struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// LessonKind distinguishes the slides of a unit.
type LessonKind string

const (
	LessonExplanation LessonKind = "lesson"
	LessonQuestion    LessonKind = "question"
	LessonAnswer      LessonKind = "answer"
)

// UnitLesson places a lesson inside a unit. Answers hang off their question via ParentID
// and carry no Order of their own.
type UnitLesson struct {
	ID       string     `json:"id"`
	UnitID   string     `json:"unit_id"`
	Kind     LessonKind `json:"kind"`
	Title    string     `json:"title"`
	ParentID string     `json:"parent_id,omitempty"`
	Order    int        `json:"order"`
}

// IsQuestion reports whether the slide poses a question.
func (ul *UnitLesson) IsQuestion() bool { return ul.Kind == LessonQuestion }

// Stage is the instructor-controlled phase of a live question.
type Stage string

const (
	StageStart      Stage = "start"
	StageResponse   Stage = "response"
	StageAssessment Stage = "assessment"
	StageEnded      Stage = "ended"
)

var stageRank = map[Stage]int{
	StageStart:      0,
	StageResponse:   1,
	StageAssessment: 2,
	StageEnded:      3,
}

// Rank orders stages; unknown stages rank below START.
func (s Stage) Rank() int {
	r, ok := stageRank[s]
	if !ok {
		return -1
	}
	return r
}

// AtLeast reports whether s has reached other.
func (s Stage) AtLeast(other Stage) bool { return s.Rank() >= other.Rank() }

// ParseStage validates a stage name.
func ParseStage(v string) (Stage, error) {
	s := Stage(v)
	if _, ok := stageRank[s]; !ok {
		return "", fmt.Errorf("%w: unknown stage %q", ErrInvalidStage, v)
	}
	return s, nil
}

// LiveSession is an instructor-run session shared by every participating student.
type LiveSession struct {
	ID                string     `json:"id"`
	UnitID            string     `json:"unit_id"`
	InstructorID      string     `json:"instructor_id"`
	CurrentQuestionID string     `json:"current_question_id,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
	// ActiveUsers are the students currently following the session.
	ActiveUsers []string `json:"active_users,omitempty"`
}

// Ended reports whether the instructor closed the session.
func (s *LiveSession) Ended() bool { return s.EndedAt != nil }

// IsActive reports whether userID is registered.
func (s *LiveSession) IsActive(userID string) bool {
	for _, u := range s.ActiveUsers {
		if u == userID {
			return true
		}
	}
	return false
}

// LiveQuestion is one question presented during a live session.
type LiveQuestion struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	UnitLessonID   string    `json:"unit_lesson_id,omitempty"`
	Title          string    `json:"title"`
	Stage          Stage     `json:"stage"`
	StageStartedAt time.Time `json:"stage_started_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// Confidence is how sure a student claims to be.
type Confidence string

const (
	ConfidenceGuess  Confidence = "guess"
	ConfidenceUnsure Confidence = "unsure"
	ConfidenceSure   Confidence = "sure"
)

// Confidences lists the valid values in display order.
var Confidences = []Confidence{ConfidenceGuess, ConfidenceUnsure, ConfidenceSure}

// SelfEval is the student's comparison of their answer with the expected one.
type SelfEval string

const (
	SelfEvalCorrect   SelfEval = "correct"
	SelfEvalClose     SelfEval = "close"
	SelfEvalDifferent SelfEval = "different"
)

// SelfEvals lists the valid values in display order.
var SelfEvals = []SelfEval{SelfEvalCorrect, SelfEvalClose, SelfEvalDifferent}

// ResponseStatus is the student's own follow-up marker.
type ResponseStatus string

const (
	StatusNeedHelp   ResponseStatus = "help"
	StatusNeedReview ResponseStatus = "review"
	StatusDone       ResponseStatus = "done"
)

// Statuses lists the valid values in display order.
var Statuses = []ResponseStatus{StatusNeedHelp, StatusNeedReview, StatusDone}

// Response is a student's answer to a live question.
type Response struct {
	QuestionID  string         `json:"question_id"`
	UserID      string         `json:"user_id"`
	Text        string         `json:"text"`
	Confidence  Confidence     `json:"confidence"`
	SelfEval    SelfEval       `json:"selfeval,omitempty"`
	Status      ResponseStatus `json:"status,omitempty"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// UserStage derives a student's progress on a question from their response.
func UserStage(r *Response) Stage {
	switch {
	case r == nil:
		return StageStart
	case r.SelfEval == "":
		return StageResponse
	default:
		return StageAssessment
	}
}

// ParseConfidence validates a confidence value.
func ParseConfidence(v string) (Confidence, error) {
	for _, c := range Confidences {
		if string(c) == v {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: confidence %q", ErrInvalidInput, v)
}

// ParseSelfEval validates a self-evaluation value.
func ParseSelfEval(v string) (SelfEval, error) {
	for _, e := range SelfEvals {
		if string(e) == v {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: self-evaluation %q", ErrInvalidInput, v)
}

// ParseStatus validates a status value. Empty is allowed.
func ParseStatus(v string) (ResponseStatus, error) {
	if v == "" {
		return "", nil
	}
	for _, s := range Statuses {
		if string(s) == v {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: status %q", ErrInvalidInput, v)
}
