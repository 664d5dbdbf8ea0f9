package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core/account"
)

// loginFlow describes one of the two login pages; both share the same handling.
type loginFlow struct {
	role     account.Role
	template string
	formURL  string
	homeURL  string
	failure  string
}

var (
	studentLogin = loginFlow{
		role:     account.RoleStudent,
		template: "login.html",
		formURL:  "/login",
		homeURL:  "/dashboard",
		failure:  msgInvalidCredentials,
	}
	adminLogin = loginFlow{
		role:     account.RoleAdmin,
		template: "admin_login.html",
		formURL:  "/admin/login",
		homeURL:  "/admin/dashboard",
		failure:  msgInvalidAdminCredentials,
	}
)

func (s *Server) loginForm(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, studentLogin.template, nil)
}

func (s *Server) login(ctx echo.Context) error {
	return s.authenticate(ctx, studentLogin)
}

func (s *Server) adminLoginForm(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, adminLogin.template, nil)
}

func (s *Server) adminLogin(ctx echo.Context) error {
	return s.authenticate(ctx, adminLogin)
}

func (s *Server) authenticate(ctx echo.Context, flow loginFlow) error {
	var data account.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := data.Validate(s.opts.Validate); err != nil {
		return s.redirect(ctx, flow.formURL, flash{flashDanger, flow.failure})
	}

	acc, err := s.opts.AccountSvc.Authenticate(ctx.Request().Context(), data.Matricule, data.Password, flow.role)
	if err != nil {
		if errors.Cause(err) == account.ErrInvalidCredentials {
			return s.redirect(ctx, flow.formURL, flash{flashDanger, flow.failure})
		}
		return errors.Wrap(err, "authenticating")
	}

	if err = s.signIn(ctx, acc); err != nil {
		return err
	}
	return s.redirect(ctx, flow.homeURL)
}

func (s *Server) logout(ctx echo.Context) error {
	if err := s.signOut(ctx); err != nil {
		return err
	}
	return s.redirect(ctx, "/")
}
