package subject

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core"
)

var (
	// errors
	ErrNotFound = errors.New("subject not found")

	errCoefficientNotInt      = "le coefficient doit être un nombre entier"
	errCoefficientNotPositive = "le coefficient doit être supérieur ou égal à 1"
)

type (
	Repository interface {
		CreateSubject(ctx context.Context, sub Subject, exec ...core.DBExecutor) (Subject, error)
		GetSubjectByID(ctx context.Context, id int, exec ...core.DBExecutor) (Subject, error)
		QuerySubjects(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Subject, error)
	}

	Service struct {
		repo             Repository
		allowNonPositive bool
	}
)

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{
		repo:             repo,
		allowNonPositive: conf.Grading.AllowNonPositiveCoefficient,
	}
}

// ParseCoefficient reads a typed coefficient; blank means DefaultCoefficient.
func (svc *Service) ParseCoefficient(s string) (int, error) {
	s = core.CleanString(s)
	if s == "" {
		return DefaultCoefficient, nil
	}
	coef, err := strconv.Atoi(s)
	if err != nil {
		return 0, core.NewValidationError(err, core.FieldError{Field: "coefficient", Error: errCoefficientNotInt})
	}
	if coef < 1 && !svc.allowNonPositive {
		return 0, core.NewValidationError(nil, core.FieldError{Field: "coefficient", Error: errCoefficientNotPositive})
	}
	return coef, nil
}

// Create inserts a Subject unconditionally; names are not required to be unique.
func (svc *Service) Create(ctx context.Context, ns NewSubject) (Subject, error) {
	coef, err := svc.ParseCoefficient(ns.Coefficient)
	if err != nil {
		return Subject{}, err
	}
	return svc.repo.CreateSubject(ctx, Subject{
		Name:        ns.Name,
		Teacher:     ns.Teacher,
		Coefficient: coef,
		CreatedAt:   time.Now().UTC(),
	})
}

func (svc *Service) GetByID(ctx context.Context, id int) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx, []core.DBOrdering{{Field: "id", Ascending: true}})
}
