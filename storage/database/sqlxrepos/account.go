package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/account"
)

const accountColumns = "id, name, matricule, password_hash, role, created_at, updated_at"

type accountRow struct {
	ID           int       `db:"id"`
	Name         string    `db:"name"`
	Matricule    string    `db:"matricule"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type accountRepository struct {
	exec core.DBExecutor
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(exec core.DBExecutor) *accountRepository {
	return &accountRepository{exec: exec}
}

func (repo accountRepository) unmarshal(row accountRow) account.Account {
	return account.Account{
		ID:           row.ID,
		Name:         row.Name,
		Matricule:    row.Matricule,
		PasswordHash: []byte(row.PasswordHash),
		Role:         account.Role(row.Role),
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

// trapNoRowsErr maps the "no rows" err to account.ErrNotFound
func (repo accountRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return account.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo accountRepository) CreateAccount(ctx context.Context, acc account.Account, exec ...core.DBExecutor) (account.Account, error) {
	exe := getExec(repo.exec, exec)
	q := exe.Rebind(`INSERT INTO account (name, matricule, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)

	var id int
	err := sqlx.GetContext(ctx, exe, &id, q,
		acc.Name, acc.Matricule, string(acc.PasswordHash), string(acc.Role), acc.CreatedAt.UTC(), acc.UpdatedAt.UTC())
	if err != nil {
		return account.Account{}, errors.Wrap(err, "inserting account")
	}
	acc.ID = id
	return acc, nil
}

func (repo accountRepository) GetAccount(ctx context.Context, filter account.GetFilter, exec ...core.DBExecutor) (account.Account, error) {
	var clauses []string
	var args []interface{}
	if filter.ID != 0 {
		clauses = append(clauses, "id = ?")
		args = append(args, filter.ID)
	}
	if filter.Matricule != "" {
		clauses = append(clauses, "matricule = ?")
		args = append(args, filter.Matricule)
	}
	if len(clauses) == 0 {
		return account.Account{}, account.ErrNotFound
	}
	if filter.Role != "" {
		clauses = append(clauses, "role = ?")
		args = append(args, string(filter.Role))
	}

	exe := getExec(repo.exec, exec)
	var row accountRow
	q := exe.Rebind("SELECT " + accountColumns + " FROM account" + where(clauses))
	if err := sqlx.GetContext(ctx, exe, &row, q, args...); err != nil {
		return account.Account{}, repo.trapNoRowsErr(err, "finding account")
	}
	return repo.unmarshal(row), nil
}

func (repo accountRepository) QueryAccounts(ctx context.Context, filter account.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]account.Account, error) {
	var clauses []string
	var args []interface{}
	if filter.Role != "" {
		clauses = append(clauses, "role = ?")
		args = append(args, string(filter.Role))
	}

	exe := getExec(repo.exec, exec)
	var rows []accountRow
	q := exe.Rebind("SELECT " + accountColumns + " FROM account" + where(clauses) + orderBy(ordering))
	if err := sqlx.SelectContext(ctx, exe, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying accounts")
	}

	accounts := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, repo.unmarshal(row))
	}
	return accounts, nil
}

func (repo accountRepository) UpdateAccount(ctx context.Context, acc account.Account, exec ...core.DBExecutor) (account.Account, error) {
	exe := getExec(repo.exec, exec)
	q := exe.Rebind("UPDATE account SET name = ?, matricule = ?, password_hash = ?, role = ?, updated_at = ? WHERE id = ?")
	res, err := exe.ExecContext(ctx, q,
		acc.Name, acc.Matricule, string(acc.PasswordHash), string(acc.Role), acc.UpdatedAt.UTC(), acc.ID)
	if err != nil {
		return account.Account{}, errors.Wrap(err, "updating account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.Account{}, account.ErrNotFound
	}
	return acc, nil
}

func (repo accountRepository) DeleteAccount(ctx context.Context, id int, exec ...core.DBExecutor) error {
	exe := getExec(repo.exec, exec)
	if _, err := exe.ExecContext(ctx, exe.Rebind("DELETE FROM account WHERE id = ?"), id); err != nil {
		return errors.Wrap(err, "deleting account")
	}
	return nil
}

func (repo accountRepository) NextSequence(ctx context.Context, name string, exec ...core.DBExecutor) (int, error) {
	exe := getExec(repo.exec, exec)
	q := exe.Rebind(`INSERT INTO counter (name, value) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET value = counter.value + 1
		RETURNING value`)

	var value int
	if err := sqlx.GetContext(ctx, exe, &value, q, name); err != nil {
		return 0, errors.Wrapf(err, "incrementing counter %s", name)
	}
	return value, nil
}
