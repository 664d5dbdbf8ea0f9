package grade

import (
	"time"

	"github.com/trezcool/scolarite/core/subject"
)

// State of a Grade with regard to correction requests.
type State string

const (
	StateClean    State = "clean"
	StateDisputed State = "disputed"
)

type Grade struct {
	ID        int
	StudentID int
	SubjectID int
	Session   string
	Score     float64
	// CorrectionRequest is nil while the grade is clean.
	// An empty submitted text still marks the grade as disputed.
	CorrectionRequest *string
	// UpdatedAt is refreshed whenever the score is entered or a correction is requested.
	UpdatedAt time.Time // UTC

	// resolved by queries
	StudentName      string
	StudentMatricule string
	Subject          subject.Subject
}

func (g Grade) State() State {
	if g.CorrectionRequest == nil {
		return StateClean
	}
	return StateDisputed
}

func (g Grade) IsDisputed() bool {
	return g.State() == StateDisputed
}

// RequestText returns the correction request text, if any.
func (g Grade) RequestText() string {
	if g.CorrectionRequest == nil {
		return ""
	}
	return *g.CorrectionRequest
}

// Dispute moves the grade to StateDisputed, replacing any previous request.
func (g *Grade) Dispute(text string, at time.Time) {
	g.CorrectionRequest = &text
	g.UpdatedAt = at.UTC()
}

// Resolve moves the grade back to StateClean. It reports whether a request was pending.
func (g *Grade) Resolve() bool {
	wasDisputed := g.IsDisputed()
	g.CorrectionRequest = nil
	return wasDisputed
}

// Rescore overwrites the score. Entering a score always resolves a pending request.
func (g *Grade) Rescore(score float64, at time.Time) {
	g.Score = score
	g.Resolve()
	g.UpdatedAt = at.UTC()
}

// NaturalKey identifies a Grade by what an administrator types in.
type NaturalKey struct {
	StudentID int
	SubjectID int
	Session   string
}

// GetFilter selects a single Grade either by ID or by NaturalKey.
type GetFilter struct {
	ID  int
	Key *NaturalKey
}

type QueryFilter struct {
	StudentID int
	Disputed  *bool
}

// BatchEntry is one submission of the grade entry form: raw scores keyed by student ID.
type BatchEntry struct {
	SubjectID int
	Session   string
	Scores    map[int]string
}
