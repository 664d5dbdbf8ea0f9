package grade

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/scolarite/core/subject"
)

func TestGrade_stateMachine(t *testing.T) {
	t0 := time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	t2 := t1.Add(time.Hour)

	g := Grade{Score: 12, UpdatedAt: t0}
	assert.Equal(t, StateClean, g.State())
	assert.False(t, g.IsDisputed())
	assert.Equal(t, "", g.RequestText())

	g.Dispute("error in grading", t1)
	assert.Equal(t, StateDisputed, g.State())
	assert.Equal(t, "error in grading", g.RequestText())
	assert.Equal(t, t1, g.UpdatedAt)
	assert.EqualValues(t, 12, g.Score, "disputing never touches the score")

	g.Rescore(14, t2)
	assert.Equal(t, StateClean, g.State())
	assert.Nil(t, g.CorrectionRequest)
	assert.EqualValues(t, 14, g.Score)
	assert.Equal(t, t2, g.UpdatedAt)
}

func TestGrade_DisputeWithEmptyText(t *testing.T) {
	var g Grade
	g.Dispute("", time.Now())
	assert.Equal(t, StateDisputed, g.State())
	assert.Equal(t, "", g.RequestText())
}

func TestGrade_Resolve(t *testing.T) {
	var g Grade
	assert.False(t, g.Resolve(), "resolving a clean grade is a no-op")

	g.Dispute("lol", time.Now())
	assert.True(t, g.Resolve())
	assert.Equal(t, StateClean, g.State())
}

func TestGrade_UTCTimestamps(t *testing.T) {
	loc := time.FixedZone("WAT", 3600)
	at := time.Date(2024, 10, 1, 9, 0, 0, 0, loc)

	var g Grade
	g.Dispute("x", at)
	assert.Equal(t, time.UTC, g.UpdatedAt.Location())
	assert.True(t, g.UpdatedAt.Equal(at))
}

func TestWeightedAverage(t *testing.T) {
	withCoef := func(score float64, coef int) Grade {
		return Grade{Score: score, Subject: subject.Subject{Coefficient: coef}}
	}

	tests := []struct {
		name   string
		grades []Grade
		want   float64
	}{
		{name: "no grades", grades: nil, want: 0},
		{name: "empty", grades: []Grade{}, want: 0},
		{name: "single", grades: []Grade{withCoef(15, 3)}, want: 15},
		{name: "weighted", grades: []Grade{withCoef(12, 2), withCoef(8, 1)}, want: 32.0 / 3},
		{name: "zero coefficient sum", grades: []Grade{withCoef(12, 0), withCoef(8, 0)}, want: 0},
		{name: "zero coefficient excluded", grades: []Grade{withCoef(12, 0), withCoef(8, 1)}, want: 8},
		{name: "negative coefficient sum", grades: []Grade{withCoef(12, -2), withCoef(8, 1)}, want: 0},
		{name: "huge coefficients", grades: []Grade{withCoef(10, math.MaxInt64/2+1), withCoef(16, math.MaxInt64/2+1)}, want: 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, WeightedAverage(tt.grades), 1e-9)
		})
	}
}
