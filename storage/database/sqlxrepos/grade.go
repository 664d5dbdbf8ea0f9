package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/grade"
	"github.com/trezcool/scolarite/core/subject"
)

const gradeSelect = `SELECT
	g.id, g.student_id, g.subject_id, g.session_label, g.score, g.correction_request, g.updated_at,
	a.name AS student_name, a.matricule AS student_matricule,
	s.name AS subject_name, s.teacher AS subject_teacher, s.coefficient AS subject_coefficient, s.created_at AS subject_created_at
FROM grade g
JOIN account a ON a.id = g.student_id
JOIN subject s ON s.id = g.subject_id`

type gradeRow struct {
	ID                int            `db:"id"`
	StudentID         int            `db:"student_id"`
	SubjectID         int            `db:"subject_id"`
	Session           string         `db:"session_label"`
	Score             float64        `db:"score"`
	CorrectionRequest sql.NullString `db:"correction_request"`
	UpdatedAt         time.Time      `db:"updated_at"`

	StudentName        string    `db:"student_name"`
	StudentMatricule   string    `db:"student_matricule"`
	SubjectName        string    `db:"subject_name"`
	SubjectTeacher     string    `db:"subject_teacher"`
	SubjectCoefficient int       `db:"subject_coefficient"`
	SubjectCreatedAt   time.Time `db:"subject_created_at"`
}

type gradeRepository struct {
	exec core.DBExecutor
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(exec core.DBExecutor) *gradeRepository {
	return &gradeRepository{exec: exec}
}

func (repo gradeRepository) correctionRequest(g grade.Grade) sql.NullString {
	if g.CorrectionRequest == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *g.CorrectionRequest, Valid: true}
}

func (repo gradeRepository) unmarshal(row gradeRow) grade.Grade {
	g := grade.Grade{
		ID:               row.ID,
		StudentID:        row.StudentID,
		SubjectID:        row.SubjectID,
		Session:          row.Session,
		Score:            row.Score,
		UpdatedAt:        row.UpdatedAt.UTC(),
		StudentName:      row.StudentName,
		StudentMatricule: row.StudentMatricule,
		Subject: subject.Subject{
			ID:          row.SubjectID,
			Name:        row.SubjectName,
			Teacher:     row.SubjectTeacher,
			Coefficient: row.SubjectCoefficient,
			CreatedAt:   row.SubjectCreatedAt.UTC(),
		},
	}
	if row.CorrectionRequest.Valid {
		text := row.CorrectionRequest.String
		g.CorrectionRequest = &text
	}
	return g
}

// trapNoRowsErr maps the "no rows" err to grade.ErrNotFound
func (repo gradeRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return grade.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo gradeRepository) CreateGrade(ctx context.Context, g grade.Grade, exec ...core.DBExecutor) (grade.Grade, error) {
	exe := getExec(repo.exec, exec)
	q := exe.Rebind(`INSERT INTO grade (student_id, subject_id, session_label, score, correction_request, updated_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)

	var id int
	err := sqlx.GetContext(ctx, exe, &id, q,
		g.StudentID, g.SubjectID, g.Session, g.Score, repo.correctionRequest(g), g.UpdatedAt.UTC())
	if err != nil {
		return grade.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return repo.GetGrade(ctx, grade.GetFilter{ID: id}, exe)
}

func (repo gradeRepository) GetGrade(ctx context.Context, filter grade.GetFilter, exec ...core.DBExecutor) (grade.Grade, error) {
	var clauses []string
	var args []interface{}
	switch {
	case filter.ID != 0:
		clauses = append(clauses, "g.id = ?")
		args = append(args, filter.ID)
	case filter.Key != nil:
		clauses = append(clauses, "g.student_id = ?", "g.subject_id = ?", "g.session_label = ?")
		args = append(args, filter.Key.StudentID, filter.Key.SubjectID, filter.Key.Session)
	default:
		return grade.Grade{}, grade.ErrNotFound
	}

	exe := getExec(repo.exec, exec)
	var row gradeRow
	if err := sqlx.GetContext(ctx, exe, &row, exe.Rebind(gradeSelect+where(clauses)), args...); err != nil {
		return grade.Grade{}, repo.trapNoRowsErr(err, "finding grade")
	}
	return repo.unmarshal(row), nil
}

func (repo gradeRepository) QueryGrades(ctx context.Context, filter grade.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]grade.Grade, error) {
	var clauses []string
	var args []interface{}
	if filter.StudentID != 0 {
		clauses = append(clauses, "g.student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.Disputed != nil {
		if *filter.Disputed {
			clauses = append(clauses, "g.correction_request IS NOT NULL")
		} else {
			clauses = append(clauses, "g.correction_request IS NULL")
		}
	}

	exe := getExec(repo.exec, exec)
	var rows []gradeRow
	q := exe.Rebind(gradeSelect + where(clauses) + orderBy(ordering))
	if err := sqlx.SelectContext(ctx, exe, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}

	grades := make([]grade.Grade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, repo.unmarshal(row))
	}
	return grades, nil
}

func (repo gradeRepository) UpdateGrade(ctx context.Context, g grade.Grade, exec ...core.DBExecutor) (grade.Grade, error) {
	exe := getExec(repo.exec, exec)
	q := exe.Rebind("UPDATE grade SET score = ?, correction_request = ?, updated_at = ? WHERE id = ?")
	res, err := exe.ExecContext(ctx, q, g.Score, repo.correctionRequest(g), g.UpdatedAt.UTC(), g.ID)
	if err != nil {
		return grade.Grade{}, errors.Wrap(err, "updating grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return grade.Grade{}, grade.ErrNotFound
	}
	return g, nil
}

func (repo gradeRepository) DeleteGradesByStudent(ctx context.Context, studentID int, exec ...core.DBExecutor) error {
	exe := getExec(repo.exec, exec)
	if _, err := exe.ExecContext(ctx, exe.Rebind("DELETE FROM grade WHERE student_id = ?"), studentID); err != nil {
		return errors.Wrap(err, "deleting grades of student")
	}
	return nil
}
