package grade

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/account"
	"github.com/trezcool/scolarite/core/subject"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("grade not found")

	errScoreNotNumeric = "la note doit être un nombre"
)

type (
	Repository interface {
		CreateGrade(ctx context.Context, g Grade, exec ...core.DBExecutor) (Grade, error)
		GetGrade(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Grade, error)
		QueryGrades(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Grade, error)
		UpdateGrade(ctx context.Context, g Grade, exec ...core.DBExecutor) (Grade, error)
		DeleteGradesByStudent(ctx context.Context, studentID int, exec ...core.DBExecutor) error
	}

	SubjectGetter interface {
		GetByID(ctx context.Context, id int) (subject.Subject, error)
	}

	Service struct {
		db               core.DB
		repo             Repository
		subjects         SubjectGetter
		enforceOwnership bool
	}

	// BatchResult reports what happened to every row of a BatchEntry.
	BatchResult struct {
		Recorded []Grade
		Skipped  []int // student IDs left blank
		Errors   []core.FieldError
	}
)

func NewService(db core.DB, repo Repository, subjects SubjectGetter, conf *core.Config) *Service {
	return &Service{
		db:               db,
		repo:             repo,
		subjects:         subjects,
		enforceOwnership: conf.Requests.EnforceOwnership,
	}
}

// Record upserts the grade identified by (student, subject, session).
// Re-entering a score resolves any pending correction request.
func (svc *Service) Record(ctx context.Context, studentID, subjectID int, session string, score float64) (Grade, error) {
	key := NaturalKey{StudentID: studentID, SubjectID: subjectID, Session: core.CleanString(session)}
	now := nowFunc()

	var g Grade
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		g, err = svc.repo.GetGrade(ctx, GetFilter{Key: &key}, tx)
		switch errors.Cause(err) {
		case nil:
			g.Rescore(score, now)
			g, err = svc.repo.UpdateGrade(ctx, g, tx)
			return errors.Wrap(err, "updating grade")
		case ErrNotFound:
			g = Grade{
				StudentID: key.StudentID,
				SubjectID: key.SubjectID,
				Session:   key.Session,
				Score:     score,
				UpdatedAt: now.UTC(),
			}
			g, err = svc.repo.CreateGrade(ctx, g, tx)
			return errors.Wrap(err, "creating grade")
		default:
			return errors.Wrap(err, "finding grade by natural key")
		}
	})
	if err != nil {
		return Grade{}, err
	}
	return g, nil
}

// RecordBatch records one score per student for a subject and a session.
// Blank scores are skipped; a malformed score only fails its own row.
func (svc *Service) RecordBatch(ctx context.Context, entry BatchEntry) (BatchResult, error) {
	var res BatchResult
	if _, err := svc.subjects.GetByID(ctx, entry.SubjectID); err != nil {
		return res, err
	}

	ids := make([]int, 0, len(entry.Scores))
	for id := range entry.Scores {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		raw := core.CleanString(entry.Scores[id])
		if raw == "" {
			res.Skipped = append(res.Skipped, id)
			continue
		}
		score, err := core.ParseScore(raw)
		if err != nil {
			res.Errors = append(res.Errors, core.FieldError{Field: ScoreField(id), Error: errScoreNotNumeric})
			continue
		}
		g, err := svc.Record(ctx, id, entry.SubjectID, entry.Session, score)
		if err != nil {
			return res, errors.Wrapf(err, "recording grade of student %d", id)
		}
		res.Recorded = append(res.Recorded, g)
	}
	return res, nil
}

// ScoreField is the form field holding a student's score in the grade entry form.
func ScoreField(studentID int) string {
	return fmt.Sprintf("note_%d", studentID)
}

// GetFor returns a grade as seen by the requester; students cannot see grades of others.
func (svc *Service) GetFor(ctx context.Context, id int, requester account.Account) (Grade, error) {
	return svc.getFor(ctx, id, requester)
}

func (svc *Service) getFor(ctx context.Context, id int, requester account.Account, exec ...core.DBExecutor) (Grade, error) {
	g, err := svc.repo.GetGrade(ctx, GetFilter{ID: id}, exec...)
	if err != nil {
		return Grade{}, err
	}
	if svc.enforceOwnership && !requester.IsAdmin() && g.StudentID != requester.ID {
		return Grade{}, ErrNotFound
	}
	return g, nil
}

// SubmitCorrectionRequest attaches a correction request to a grade, moving it to StateDisputed.
func (svc *Service) SubmitCorrectionRequest(ctx context.Context, id int, text string, requester account.Account) (Grade, error) {
	var g Grade
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if g, err = svc.getFor(ctx, id, requester, tx); err != nil {
			return err
		}
		g.Dispute(text, nowFunc())
		g, err = svc.repo.UpdateGrade(ctx, g, tx)
		return errors.Wrap(err, "updating grade")
	})
	if err != nil {
		return Grade{}, err
	}
	return g, nil
}

func (svc *Service) QueryByStudent(ctx context.Context, studentID int) ([]Grade, error) {
	return svc.repo.QueryGrades(ctx, QueryFilter{StudentID: studentID}, []core.DBOrdering{{Field: "g.id", Ascending: true}})
}

// QueryDisputed lists pending correction requests, most recent first.
func (svc *Service) QueryDisputed(ctx context.Context) ([]Grade, error) {
	disputed := true
	return svc.repo.QueryGrades(
		ctx,
		QueryFilter{Disputed: &disputed},
		[]core.DBOrdering{{Field: "g.updated_at"}, {Field: "g.id"}},
	)
}

// StudentAverage is the weighted average of every grade of a student; 0 if there is none.
func (svc *Service) StudentAverage(ctx context.Context, studentID int) (float64, error) {
	grades, err := svc.QueryByStudent(ctx, studentID)
	if err != nil {
		return 0, err
	}
	return WeightedAverage(grades), nil
}
