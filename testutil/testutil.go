package testutil

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/account"
	"github.com/trezcool/scolarite/core/subject"
	"github.com/trezcool/scolarite/storage/database"
)

func init() {
	goose.SetLogger(log.New(io.Discard, "", 0))
}

// Config returns the configuration tests run with: a sqlite file private to the test.
func Config(t *testing.T) *core.Config {
	t.Helper()
	return &core.Config{
		TestMode:  true,
		Env:       "TEST",
		Build:     "test",
		AppName:   "Scolarite",
		SecretKey: "test-secret-key-test-secret-key!",
		Server:    core.ServerConfig{ShutdownTimeout: time.Second},
		Database: core.DatabaseConfig{
			Engine: core.EngineSQLite,
			Path:   filepath.Join(t.TempDir(), "scolarite_test.db"),
		},
		Log:       core.LogConfig{Level: "disabled", Format: "json"},
		Bootstrap: core.BootstrapConfig{AdminMatricule: "ADM01", AdminName: "Direction"},
		Matricule: core.MatriculeConfig{Prefix: "24G"},
		Grading:   core.GradingConfig{AllowNonPositiveCoefficient: true},
		Requests:  core.RequestsConfig{EnforceOwnership: true},
	}
}

// PrepareDB opens and migrates the database of conf; it is closed when the test ends.
func PrepareDB(t *testing.T, conf *core.Config) *sqlx.DB {
	t.Helper()
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func createAccount(t *testing.T, repo account.Repository, role account.Role, name, matricule, pwd string) account.Account {
	t.Helper()
	now := time.Now().UTC()
	acc := account.Account{
		Name:      name,
		Matricule: matricule,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := acc.SetPassword(pwd); err != nil {
		t.Fatalf("createAccount() failed: %v", err)
	}
	acc, err := repo.CreateAccount(context.Background(), acc)
	if err != nil {
		t.Fatalf("createAccount() failed: %v", err)
	}
	return acc
}

// CreateStudent inserts a student bypassing the matricule counter.
func CreateStudent(t *testing.T, repo account.Repository, name, matricule, pwd string) account.Account {
	t.Helper()
	return createAccount(t, repo, account.RoleStudent, name, matricule, pwd)
}

func CreateAdmin(t *testing.T, repo account.Repository, name, matricule, pwd string) account.Account {
	t.Helper()
	return createAccount(t, repo, account.RoleAdmin, name, matricule, pwd)
}

func CreateSubject(t *testing.T, repo subject.Repository, name string, coefficient int) subject.Subject {
	t.Helper()
	sub, err := repo.CreateSubject(context.Background(), subject.Subject{
		Name:        name,
		Coefficient: coefficient,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sub
}
