package echoweb

import (
	"html/template"
	"io"
	"io/fs"
	"path"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core/account"
	appfs "github.com/trezcool/scolarite/fs"
)

const layoutTemplate = "layout.html"

var templateFuncs = template.FuncMap{
	"score": func(f float64) string {
		return strconv.FormatFloat(f, 'f', 2, 64)
	},
	"date": func(t time.Time) string {
		return t.Local().Format("02/01/2006 15:04")
	},
}

// renderer executes one template set per page: the layout plus the page's blocks.
type renderer struct {
	templates map[string]*template.Template
}

var _ echo.Renderer = (*renderer)(nil)

func newRenderer() (*renderer, error) {
	pages, err := fs.Glob(appfs.FS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, p := range pages {
		name := path.Base(p)
		if name == layoutTemplate {
			continue
		}
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(appfs.FS, "templates/"+layoutTemplate, p)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", name)
		}
		r.templates[name] = t
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %s not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// page is what every template receives.
type page struct {
	AppName string
	Account *account.Account
	CSRF    string
	Flashes []flash
	Data    echo.Map
}

func (s *Server) render(ctx echo.Context, code int, name string, data echo.Map) error {
	csrf, _ := ctx.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return ctx.Render(code, name, page{
		AppName: s.opts.Conf.AppName,
		Account: currentAccount(ctx),
		CSRF:    csrf,
		Flashes: s.popFlashes(ctx),
		Data:    data,
	})
}
