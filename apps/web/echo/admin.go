package echoweb

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/account"
	"github.com/trezcool/scolarite/core/grade"
	"github.com/trezcool/scolarite/core/subject"
)

const adminHome = "/admin/dashboard"

func (s *Server) adminDashboard(ctx echo.Context) error {
	c := ctx.Request().Context()
	disputed, err := s.opts.GradeSvc.QueryDisputed(c)
	if err != nil {
		return errors.Wrap(err, "querying disputed grades")
	}
	students, err := s.opts.AccountSvc.QueryStudents(c)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return s.render(ctx, http.StatusOK, "admin_dashboard.html", echo.Map{
		"Disputed": disputed,
		"Students": students,
	})
}

func (s *Server) addStudent(ctx echo.Context) error {
	var data account.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(s.opts.Validate); err != nil {
		if flashes, ok := s.validationFlashes(err); ok {
			return s.redirect(ctx, adminHome, flashes...)
		}
		return err
	}

	acc, err := s.opts.AccountSvc.ProvisionStudent(ctx.Request().Context(), data)
	if err != nil {
		if flashes, ok := s.validationFlashes(err); ok {
			return s.redirect(ctx, adminHome, flashes...)
		}
		return errors.Wrap(err, "provisioning student")
	}
	msg := fmt.Sprintf("Étudiant %s ajouté ! Matricule : %s", acc.Name, acc.Matricule)
	return s.redirect(ctx, adminHome, flash{flashSuccess, msg})
}

func (s *Server) editStudentForm(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	acc, err := s.opts.AccountSvc.GetStudent(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return s.render(ctx, http.StatusOK, "admin_modifier_etudiant.html", echo.Map{"Student": acc})
}

func (s *Server) editStudent(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return s.redirect(ctx, adminHome, flash{flashDanger, msgStudentNotFound})
	}

	var data account.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err = data.Validate(s.opts.Validate); err != nil {
		if flashes, ok := s.validationFlashes(err); ok {
			return s.redirect(ctx, fmt.Sprintf("/admin/modifier_etudiant/%d", id), flashes...)
		}
		return err
	}

	acc, err := s.opts.AccountSvc.EditStudent(ctx.Request().Context(), id, data)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return s.redirect(ctx, adminHome, flash{flashDanger, msgStudentNotFound})
		}
		if flashes, ok := s.validationFlashes(err); ok {
			return s.redirect(ctx, fmt.Sprintf("/admin/modifier_etudiant/%d", id), flashes...)
		}
		return errors.Wrap(err, "editing student")
	}
	msg := fmt.Sprintf("Informations de %s mises à jour.", acc.Name)
	return s.redirect(ctx, adminHome, flash{flashSuccess, msg})
}

func (s *Server) deleteStudent(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return s.redirect(ctx, adminHome, flash{flashDanger, msgStudentNotFound})
	}
	if err = s.opts.AccountSvc.DeleteStudent(ctx.Request().Context(), id); err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return s.redirect(ctx, adminHome, flash{flashDanger, msgStudentNotFound})
		}
		return errors.Wrap(err, "deleting student")
	}
	return s.redirect(ctx, adminHome, flash{flashWarning, msgStudentDeleted})
}

func (s *Server) subjects(ctx echo.Context) error {
	subjects, err := s.opts.SubjectSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return s.render(ctx, http.StatusOK, "admin_matiere.html", echo.Map{"Subjects": subjects})
}

func (s *Server) createSubject(ctx echo.Context) error {
	var data subject.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	err := data.Validate(s.opts.Validate)
	if err == nil {
		_, err = s.opts.SubjectSvc.Create(ctx.Request().Context(), data)
	}
	if err != nil {
		if flashes, ok := s.validationFlashes(err); ok {
			return s.redirect(ctx, "/admin/matiere", flashes...)
		}
		return errors.Wrap(err, "creating subject")
	}
	return s.redirect(ctx, "/admin/matiere", flash{flashSuccess, msgSubjectCreated})
}

func (s *Server) gradeEntryForm(ctx echo.Context) error {
	c := ctx.Request().Context()
	subjects, err := s.opts.SubjectSvc.QueryAll(c)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	students, err := s.opts.AccountSvc.QueryStudents(c)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return s.render(ctx, http.StatusOK, "admin_note.html", echo.Map{
		"Subjects": subjects,
		"Students": students,
	})
}

// recordGrades reads one `note_<student id>` field per listed student.
func (s *Server) recordGrades(ctx echo.Context) error {
	c := ctx.Request().Context()
	subjectID, err := strconv.Atoi(core.CleanString(ctx.FormValue("matiere_id")))
	if err != nil {
		return s.redirect(ctx, "/admin/note", flash{flashDanger, msgSubjectNotFound})
	}
	students, err := s.opts.AccountSvc.QueryStudents(c)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}

	entry := grade.BatchEntry{
		SubjectID: subjectID,
		Session:   ctx.FormValue("session_type"),
		Scores:    make(map[int]string, len(students)),
	}
	names := make(map[string]string, len(students))
	for _, stud := range students {
		fld := grade.ScoreField(stud.ID)
		entry.Scores[stud.ID] = ctx.FormValue(fld)
		names[fld] = stud.Name
	}

	res, err := s.opts.GradeSvc.RecordBatch(c, entry)
	if err != nil {
		if errors.Cause(err) == subject.ErrNotFound {
			return s.redirect(ctx, "/admin/note", flash{flashDanger, msgSubjectNotFound})
		}
		return errors.Wrap(err, "recording grades")
	}

	flashes := make([]flash, 0, len(res.Errors)+1)
	for _, fErr := range res.Errors {
		flashes = append(flashes, flash{flashWarning, fmt.Sprintf("%s : %s", names[fErr.Field], fErr.Error)})
	}
	flashes = append(flashes, flash{flashSuccess, msgGradesRecorded})
	return s.redirect(ctx, adminHome, flashes...)
}
