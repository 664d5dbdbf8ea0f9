package echoweb

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/account"
	"github.com/trezcool/scolarite/core/grade"
	"github.com/trezcool/scolarite/core/subject"
)

var (
	errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "Page introuvable.")
	errServer       = http.StatusText(http.StatusInternalServerError)
)

// user-facing messages
const (
	msgInvalidCredentials      = "Identifiants incorrects."
	msgInvalidAdminCredentials = "Identifiants admin incorrects."
	msgAdminOnly               = "Accès réservé à l'administration."
	msgRequestSent             = "Votre réclamation a été transmise."
	msgGradeNotFound           = "Note introuvable."
	msgStudentNotFound         = "Étudiant introuvable."
	msgStudentDeleted          = "Étudiant et ses notes supprimés."
	msgSubjectNotFound         = "Matière introuvable."
	msgSubjectCreated          = "Matière créée."
	msgGradesRecorded          = "Notes enregistrées avec succès."
)

// isNotFound reports whether err means that the targeted object does not exist.
func isNotFound(err error) bool {
	switch errors.Cause(err) {
	case account.ErrNotFound, subject.ErrNotFound, grade.ErrNotFound:
		return true
	}
	return false
}

// paramID parses the `:id` path param; a malformed id is a missing object.
func paramID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// validationFlashes turns a validation failure into danger flashes. ok is false for any other error.
func (s *Server) validationFlashes(err error) (flashes []flash, ok bool) {
	err = core.TranslateValidation(errors.Cause(err), s.opts.Translator)
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	if !ok {
		return nil, false
	}
	for _, msg := range vErr.Messages() {
		flashes = append(flashes, flash{flashDanger, msg})
	}
	return flashes, true
}

// httpErrorHandler renders an error page for any error a handler did not turn into a redirect.
// A core.shutdown error also asks the Server to shut down gracefully.
func (s *Server) httpErrorHandler(err error, ctx echo.Context) {
	code := http.StatusInternalServerError
	message := errServer

	switch origErr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if origErr.Internal != nil {
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
		}
		code = origErr.Code
		if m, ok := origErr.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	default:
		if isNotFound(err) {
			code = http.StatusNotFound
			message = errHttpNotFound.Message.(string)
			break
		}

		args := []interface{}{errors.Wrap(err, errServer)}
		if acc := currentAccount(ctx); acc != nil {
			args = append(args, *acc)
		}
		s.opts.Logger.Error(errServer, args...)

		// shutting down...
		if core.IsShutdown(err) {
			s.signalShutdown()
		}
	}

	if ctx.Echo().Debug && code == http.StatusInternalServerError {
		message = err.Error()
	}

	if ctx.Response().Committed {
		return
	}
	if ctx.Request().Method == http.MethodHead {
		err = ctx.NoContent(code)
	} else {
		err = s.render(ctx, code, "error.html", echo.Map{"Code": code, "Message": message})
	}
	if err != nil {
		s.opts.Logger.Error("rendering error page", err)
	}
}
