package account

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core"
)

const matriculeSequence = "matricule"

var (
	// errors
	ErrNotFound           = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMatriculeExists    = errors.New("an account with this matricule already exists")
)

type (
	Repository interface {
		CreateAccount(ctx context.Context, acc Account, exec ...core.DBExecutor) (Account, error)
		GetAccount(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Account, error)
		QueryAccounts(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Account, error)
		UpdateAccount(ctx context.Context, acc Account, exec ...core.DBExecutor) (Account, error)
		DeleteAccount(ctx context.Context, id int, exec ...core.DBExecutor) error
		// NextSequence increments and returns the named counter. Counters never go back.
		NextSequence(ctx context.Context, name string, exec ...core.DBExecutor) (int, error)
	}

	// GradeRemover deletes every grade owned by a student.
	GradeRemover interface {
		DeleteGradesByStudent(ctx context.Context, studentID int, exec ...core.DBExecutor) error
	}

	Service struct {
		db     core.DB
		repo   Repository
		grades GradeRemover
		prefix string
	}
)

func NewService(db core.DB, repo Repository, grades GradeRemover, conf *core.Config) *Service {
	return &Service{
		db:     db,
		repo:   repo,
		grades: grades,
		prefix: conf.Matricule.Prefix,
	}
}

// Authenticate looks the account up among accounts of the expected role only.
func (svc *Service) Authenticate(ctx context.Context, matricule, pwd string, role Role) (Account, error) {
	acc, err := svc.repo.GetAccount(ctx, GetFilter{Matricule: core.CleanString(matricule), Role: role})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, errors.Wrap(err, "finding account by matricule")
	}
	if err = acc.CheckPassword(pwd); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return acc, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Account, error) {
	return svc.repo.GetAccount(ctx, GetFilter{ID: id})
}

func (svc *Service) GetStudent(ctx context.Context, id int) (Account, error) {
	return svc.repo.GetAccount(ctx, GetFilter{ID: id, Role: RoleStudent})
}

func (svc *Service) GetByMatricule(ctx context.Context, matricule string) (Account, error) {
	return svc.repo.GetAccount(ctx, GetFilter{Matricule: core.CleanString(matricule)})
}

// QueryStudents returns every student sorted by name.
func (svc *Service) QueryStudents(ctx context.Context) ([]Account, error) {
	return svc.repo.QueryAccounts(
		ctx,
		QueryFilter{Role: RoleStudent},
		[]core.DBOrdering{{Field: "name", Ascending: true}, {Field: "id", Ascending: true}},
	)
}

// ProvisionStudent creates a student Account and issues its matricule from a monotonic counter.
func (svc *Service) ProvisionStudent(ctx context.Context, ns NewStudent) (Account, error) {
	now := time.Now().UTC()
	acc := Account{
		Name:      ns.Name,
		Role:      RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := acc.SetPassword(ns.Password); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}

	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		code, err := svc.nextMatricule(ctx, tx)
		if err != nil {
			return err
		}
		acc.Matricule = code
		acc, err = svc.repo.CreateAccount(ctx, acc, tx)
		return errors.Wrap(err, "creating account")
	})
	if err != nil {
		return Account{}, err
	}
	return acc, nil
}

// nextMatricule skips codes already taken, eg. by an administrator created by hand.
func (svc *Service) nextMatricule(ctx context.Context, tx core.DBExecutor) (string, error) {
	for {
		seq, err := svc.repo.NextSequence(ctx, matriculeSequence, tx)
		if err != nil {
			return "", errors.Wrap(err, "drawing matricule sequence")
		}
		code := FormatMatricule(svc.prefix, seq)
		_, err = svc.repo.GetAccount(ctx, GetFilter{Matricule: code}, tx)
		switch errors.Cause(err) {
		case ErrNotFound:
			return code, nil
		case nil:
			continue
		default:
			return "", errors.Wrap(err, "checking matricule uniqueness")
		}
	}
}

// EditStudent overwrites the name and password of a student.
func (svc *Service) EditStudent(ctx context.Context, id int, us UpdateStudent) (Account, error) {
	acc, err := svc.GetStudent(ctx, id)
	if err != nil {
		return Account{}, err
	}
	acc.Name = us.Name
	if err = acc.SetPassword(us.Password); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}
	acc.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acc)
}

// DeleteStudent removes a student and all of their grades atomically.
func (svc *Service) DeleteStudent(ctx context.Context, id int) error {
	return core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if _, err := svc.repo.GetAccount(ctx, GetFilter{ID: id, Role: RoleStudent}, tx); err != nil {
			return err
		}
		if err := svc.grades.DeleteGradesByStudent(ctx, id, tx); err != nil {
			return errors.Wrap(err, "deleting grades")
		}
		return errors.Wrap(svc.repo.DeleteAccount(ctx, id, tx), "deleting account")
	})
}

// Bootstrap creates the first administrator when none exists and a password is configured.
func (svc *Service) Bootstrap(ctx context.Context, conf core.BootstrapConfig) (bool, error) {
	if conf.AdminPassword == "" {
		return false, nil
	}
	admins, err := svc.repo.QueryAccounts(ctx, QueryFilter{Role: RoleAdmin}, nil)
	if err != nil {
		return false, errors.Wrap(err, "querying admins")
	}
	if len(admins) > 0 {
		return false, nil
	}
	if _, err = svc.SaveAdmin(ctx, conf.AdminMatricule, conf.AdminName, conf.AdminPassword); err != nil {
		return false, err
	}
	return true, nil
}

// SaveAdmin updates or creates an administrator Account.
func (svc *Service) SaveAdmin(ctx context.Context, matricule, name, pwd string) (Account, error) {
	matricule = core.CleanString(matricule)
	now := time.Now().UTC()

	acc, err := svc.GetByMatricule(ctx, matricule)
	switch errors.Cause(err) {
	case nil:
		if !acc.IsAdmin() {
			return Account{}, ErrMatriculeExists
		}
	case ErrNotFound:
		acc = Account{Matricule: matricule, Role: RoleAdmin, CreatedAt: now}
	default:
		return Account{}, errors.Wrap(err, "finding account by matricule")
	}

	if name = core.CleanString(name); name != "" {
		acc.Name = name
	}
	if err = acc.SetPassword(pwd); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}
	acc.UpdatedAt = now

	if acc.ID == 0 {
		return svc.repo.CreateAccount(ctx, acc)
	}
	return svc.repo.UpdateAccount(ctx, acc)
}

// ResetPassword sets a new password on any Account.
func (svc *Service) ResetPassword(ctx context.Context, matricule, pwd string) error {
	acc, err := svc.GetByMatricule(ctx, matricule)
	if err != nil {
		return err
	}
	if err = acc.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	acc.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateAccount(ctx, acc)
	return err
}
