package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/subject"
)

type subjectRow struct {
	ID          int       `db:"id"`
	Name        string    `db:"name"`
	Teacher     string    `db:"teacher"`
	Coefficient int       `db:"coefficient"`
	CreatedAt   time.Time `db:"created_at"`
}

type subjectRepository struct {
	exec core.DBExecutor
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(exec core.DBExecutor) *subjectRepository {
	return &subjectRepository{exec: exec}
}

func (repo subjectRepository) unmarshal(row subjectRow) subject.Subject {
	return subject.Subject{
		ID:          row.ID,
		Name:        row.Name,
		Teacher:     row.Teacher,
		Coefficient: row.Coefficient,
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

func (repo subjectRepository) CreateSubject(ctx context.Context, sub subject.Subject, exec ...core.DBExecutor) (subject.Subject, error) {
	exe := getExec(repo.exec, exec)
	q := exe.Rebind("INSERT INTO subject (name, teacher, coefficient, created_at) VALUES (?, ?, ?, ?) RETURNING id")

	var id int
	if err := sqlx.GetContext(ctx, exe, &id, q, sub.Name, sub.Teacher, sub.Coefficient, sub.CreatedAt.UTC()); err != nil {
		return subject.Subject{}, errors.Wrap(err, "inserting subject")
	}
	sub.ID = id
	return sub, nil
}

func (repo subjectRepository) GetSubjectByID(ctx context.Context, id int, exec ...core.DBExecutor) (subject.Subject, error) {
	exe := getExec(repo.exec, exec)
	var row subjectRow
	q := exe.Rebind("SELECT id, name, teacher, coefficient, created_at FROM subject WHERE id = ?")
	if err := sqlx.GetContext(ctx, exe, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return subject.Subject{}, subject.ErrNotFound
		}
		return subject.Subject{}, errors.Wrap(err, "finding subject by ID")
	}
	return repo.unmarshal(row), nil
}

func (repo subjectRepository) QuerySubjects(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]subject.Subject, error) {
	exe := getExec(repo.exec, exec)
	var rows []subjectRow
	q := "SELECT id, name, teacher, coefficient, created_at FROM subject" + orderBy(ordering)
	if err := sqlx.SelectContext(ctx, exe, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}

	subjects := make([]subject.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, repo.unmarshal(row))
	}
	return subjects, nil
}
