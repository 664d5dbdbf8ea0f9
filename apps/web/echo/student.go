package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core/grade"
)

func (s *Server) dashboard(ctx echo.Context) error {
	acc := currentAccount(ctx)
	grades, err := s.opts.GradeSvc.QueryByStudent(ctx.Request().Context(), acc.ID)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return s.render(ctx, http.StatusOK, "dashboard.html", echo.Map{
		"Student": acc,
		"Grades":  grades,
		"Average": grade.WeightedAverage(grades),
	})
}

func (s *Server) correctionRequestForm(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	g, err := s.opts.GradeSvc.GetFor(ctx.Request().Context(), id, *currentAccount(ctx))
	if err != nil {
		return err
	}
	return s.render(ctx, http.StatusOK, "requete.html", echo.Map{"Grade": g})
}

func (s *Server) submitCorrectionRequest(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return s.redirect(ctx, "/dashboard", flash{flashDanger, msgGradeNotFound})
	}

	_, err = s.opts.GradeSvc.SubmitCorrectionRequest(
		ctx.Request().Context(),
		id,
		ctx.FormValue("requete_text"),
		*currentAccount(ctx),
	)
	if err != nil {
		if errors.Cause(err) == grade.ErrNotFound {
			return s.redirect(ctx, "/dashboard", flash{flashDanger, msgGradeNotFound})
		}
		return errors.Wrap(err, "submitting correction request")
	}
	return s.redirect(ctx, "/dashboard", flash{flashSuccess, msgRequestSent})
}
