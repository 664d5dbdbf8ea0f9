package subject

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/scolarite/core"
)

const DefaultCoefficient = 1

type Subject struct {
	ID          int
	Name        string
	Teacher     string
	Coefficient int
	CreatedAt   time.Time // UTC
}

// NewSubject contains information needed to create a new Subject.
// Coefficient is kept as typed; it is parsed when the Subject is created.
type NewSubject struct {
	Name        string `form:"nom_matiere" validate:"notblank"`
	Teacher     string `form:"nom_professeur"`
	Coefficient string `form:"coefficient"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Teacher = core.CleanString(ns.Teacher)
	ns.Coefficient = core.CleanString(ns.Coefficient)
	return validate.Struct(ns)
}
