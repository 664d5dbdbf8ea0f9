package logsvc

import (
	"io"
	"strconv"
	"time"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"github.com/rs/zerolog"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/account"
)

// Logger writes structured logs with zerolog and forwards them to Rollbar when a token is configured.
type Logger struct {
	zl      zerolog.Logger
	rollbar bool
}

var _ core.Logger = (*Logger)(nil)

// NewZerolog builds the zerolog.Logger shared by the app and the HTTP request logger.
func NewZerolog(w io.Writer, component string, conf *core.Config) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(conf.Log.Level)
	if err != nil || conf.Log.Level == "" {
		lvl = zerolog.InfoLevel
	}
	if conf.Log.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

func New(w io.Writer, component string, conf *core.Config) *Logger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)

	l := &Logger{zl: NewZerolog(w, component, conf)}
	l.Enable(conf.RollbarToken != "" && !conf.Debug && !conf.TestMode)
	return l
}

// Enable turns Rollbar reporting on or off. Local logs are always written.
func (l *Logger) Enable(enabled bool) {
	l.rollbar = enabled
	rollbar.SetEnabled(enabled)
}

// Zerolog exposes the underlying logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}

// expected fmt: msg | error, map[string]interface{}, account.Account
func (l *Logger) log(evt *zerolog.Event, report func(...interface{}), msg string, args []interface{}) {
	var accSet bool
	rbArgs := make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)

	for i, arg := range args {
		switch a := arg.(type) {
		case account.Account:
			if !accSet { // only set one Account
				evt = evt.Int("account_id", a.ID).Str("matricule", a.Matricule)
				if l.rollbar {
					rollbar.SetPerson(strconv.Itoa(a.ID), a.Matricule, "")
				}
				accSet = true
			}
			continue
		case error:
			evt = evt.Err(a)
		case map[string]interface{}:
			evt = evt.Fields(a)
		default:
			evt = evt.Interface("arg"+strconv.Itoa(i), a)
		}
		rbArgs = append(rbArgs, arg)
	}

	if l.rollbar {
		if !accSet {
			rollbar.ClearPerson()
		}
		report(rbArgs...)
	}
	evt.Msg(msg)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(l.zl.Debug(), rollbar.Debug, msg, args)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(l.zl.Info(), rollbar.Info, msg, args)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(l.zl.Warn(), rollbar.Warning, msg, args)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(l.zl.Error(), rollbar.Error, msg, args)
}

// Fatal logs then exits the process once Rollbar has delivered the report.
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.log(l.zl.WithLevel(zerolog.FatalLevel), rollbar.Critical, msg, args)
	if l.rollbar {
		rollbar.Wait()
	}
	exit(1)
}
