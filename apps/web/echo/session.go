package echoweb

import (
	"database/sql"
	"encoding/gob"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/account"
)

const (
	sessionName = "scolarite"
	csrfField   = "_csrf"

	// session keys
	accountIDKey = "account_id"
	roleKey      = "role"

	// echo.Context keys
	ctxAccountKey = "account"
)

// flash categories
const (
	flashSuccess = "success"
	flashWarning = "warning"
	flashDanger  = "danger"
)

type flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(flash{})
}

func newSessionStore(conf *core.Config, logger core.Logger) (sessions.Store, error) {
	key := []byte(conf.SecretKey)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, errors.New("generating session key")
		}
		logger.Warn("secretKey is not configured: sessions will not survive a restart")
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   !(conf.Debug || conf.TestMode),
		SameSite: http.SameSiteLaxMode,
	}
	return store, nil
}

// session never fails: a cookie that cannot be decoded yields a new, empty session.
func (s *Server) session(ctx echo.Context) *sessions.Session {
	sess, err := s.store.Get(ctx.Request(), sessionName)
	if err != nil {
		sess, _ = s.store.New(ctx.Request(), sessionName)
	}
	return sess
}

func (s *Server) saveSession(ctx echo.Context, sess *sessions.Session) error {
	return errors.Wrap(sess.Save(ctx.Request(), ctx.Response()), "saving session")
}

func (s *Server) signIn(ctx echo.Context, acc account.Account) error {
	sess := s.session(ctx)
	sess.Values[accountIDKey] = acc.ID
	sess.Values[roleKey] = string(acc.Role)
	return s.saveSession(ctx, sess)
}

// signOut drops every session value but pending flashes.
func (s *Server) signOut(ctx echo.Context) error {
	sess := s.session(ctx)
	delete(sess.Values, accountIDKey)
	delete(sess.Values, roleKey)
	return s.saveSession(ctx, sess)
}

// redirect stores the flashes in the session, then redirects (303).
func (s *Server) redirect(ctx echo.Context, url string, flashes ...flash) error {
	if len(flashes) > 0 {
		sess := s.session(ctx)
		for _, f := range flashes {
			sess.AddFlash(f)
		}
		if err := s.saveSession(ctx, sess); err != nil {
			return err
		}
	}
	return ctx.Redirect(http.StatusSeeOther, url)
}

// popFlashes consumes the pending flashes.
func (s *Server) popFlashes(ctx echo.Context) []flash {
	sess := s.session(ctx)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := s.saveSession(ctx, sess); err != nil {
		s.opts.Logger.Warn("consuming flashes", err)
	}

	flashes := make([]flash, 0, len(raw))
	for _, r := range raw {
		if f, ok := r.(flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}

// loadAccount resolves the session into the request-scoped Account.
// A session pointing to a deleted account, or carrying a stale role, is cleared.
func (s *Server) loadAccount(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		sess := s.session(ctx)
		id, ok := sess.Values[accountIDKey].(int)
		if !ok || id == 0 {
			return next(ctx)
		}
		role, _ := sess.Values[roleKey].(string)

		acc, err := s.opts.AccountSvc.GetByID(ctx.Request().Context(), id)
		switch errors.Cause(err) {
		case nil:
			if string(acc.Role) == role {
				ctx.Set(ctxAccountKey, &acc)
				return next(ctx)
			}
		case account.ErrNotFound:
		default:
			if isConnClosed(err) {
				// no request can be served anymore
				return core.NewShutdownError("database connection closed")
			}
			return errors.Wrap(err, "loading session account")
		}

		if err = s.signOut(ctx); err != nil {
			return err
		}
		return next(ctx)
	}
}

// isConnClosed reports whether err comes from a closed *sql.DB.
// database/sql does not export its "database is closed" error.
func isConnClosed(err error) bool {
	cause := errors.Cause(err)
	return cause == sql.ErrConnDone || cause.Error() == "sql: database is closed"
}

// currentAccount returns the signed in Account, or nil.
func currentAccount(ctx echo.Context) *account.Account {
	acc, _ := ctx.Get(ctxAccountKey).(*account.Account)
	return acc
}

func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if currentAccount(ctx) == nil {
			return ctx.Redirect(http.StatusSeeOther, "/login")
		}
		return next(ctx)
	}
}

func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if acc := currentAccount(ctx); acc == nil || !acc.IsAdmin() {
			return s.redirect(ctx, "/admin/login", flash{flashDanger, msgAdminOnly})
		}
		return next(ctx)
	}
}
