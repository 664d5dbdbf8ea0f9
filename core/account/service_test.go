package account_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/account"
	"github.com/trezcool/scolarite/core/grade"
	"github.com/trezcool/scolarite/core/subject"
	"github.com/trezcool/scolarite/storage/database/sqlxrepos"
	"github.com/trezcool/scolarite/testutil"
)

type fixture struct {
	db       *sqlx.DB
	conf     *core.Config
	svc      *account.Service
	repo     account.Repository
	subRepo  subject.Repository
	gradeSvc *grade.Service
}

func setup(t *testing.T) fixture {
	conf := testutil.Config(t)
	db := testutil.PrepareDB(t, conf)

	gradeRepo := sqlxrepos.NewGradeRepository(db)
	f := fixture{
		db:      db,
		conf:    conf,
		repo:    sqlxrepos.NewAccountRepository(db),
		subRepo: sqlxrepos.NewSubjectRepository(db),
	}
	f.svc = account.NewService(db, f.repo, gradeRepo, conf)
	f.gradeSvc = grade.NewService(db, gradeRepo, subject.NewService(f.subRepo, conf), conf)
	return f
}

func TestService_Authenticate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	student := testutil.CreateStudent(t, f.repo, "Amara", "24G001", "pwd-student")
	admin := testutil.CreateAdmin(t, f.repo, "Direction", "ADM01", "pwd-admin")

	tests := []struct {
		name      string
		matricule string
		pwd       string
		role      account.Role
		wantID    int
	}{
		{name: "student ok", matricule: "24G001", pwd: "pwd-student", role: account.RoleStudent, wantID: student.ID},
		{name: "student ok, padded code", matricule: " 24G001 ", pwd: "pwd-student", role: account.RoleStudent, wantID: student.ID},
		{name: "admin ok", matricule: "ADM01", pwd: "pwd-admin", role: account.RoleAdmin, wantID: admin.ID},
		{name: "wrong password", matricule: "24G001", pwd: "lol", role: account.RoleStudent},
		{name: "unknown code", matricule: "24G404", pwd: "pwd-student", role: account.RoleStudent},
		{name: "student on admin login", matricule: "24G001", pwd: "pwd-student", role: account.RoleAdmin},
		{name: "admin on student login", matricule: "ADM01", pwd: "pwd-admin", role: account.RoleStudent},
		{name: "empty", role: account.RoleStudent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := f.svc.Authenticate(ctx, tt.matricule, tt.pwd, tt.role)
			if tt.wantID == 0 {
				assert.Equal(t, account.ErrInvalidCredentials, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, acc.ID)
			assert.Equal(t, tt.role, acc.Role)
		})
	}
}

func TestService_ProvisionStudent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	amara, err := f.svc.ProvisionStudent(ctx, account.NewStudent{Name: "Amara", Password: "pwd"})
	require.NoError(t, err)
	assert.Equal(t, "24G001", amara.Matricule)
	assert.Equal(t, account.RoleStudent, amara.Role)

	bintou, err := f.svc.ProvisionStudent(ctx, account.NewStudent{Name: "Bintou", Password: "pwd"})
	require.NoError(t, err)
	assert.Equal(t, "24G002", bintou.Matricule)

	// codes are never reused, even after deleting the last student
	require.NoError(t, f.svc.DeleteStudent(ctx, bintou.ID))
	chidi, err := f.svc.ProvisionStudent(ctx, account.NewStudent{Name: "Chidi", Password: "pwd"})
	require.NoError(t, err)
	assert.Equal(t, "24G003", chidi.Matricule)

	// codes taken by hand are skipped
	testutil.CreateStudent(t, f.repo, "Dayo", "24G004", "pwd")
	eze, err := f.svc.ProvisionStudent(ctx, account.NewStudent{Name: "Eze", Password: "pwd"})
	require.NoError(t, err)
	assert.Equal(t, "24G005", eze.Matricule)

	acc, err := f.svc.Authenticate(ctx, "24G001", "pwd", account.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, amara.ID, acc.ID)
}

func TestService_QueryStudents(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	zoe := testutil.CreateStudent(t, f.repo, "Zoé", "24G001", "pwd")
	ade := testutil.CreateStudent(t, f.repo, "Adé", "24G002", "pwd")
	testutil.CreateAdmin(t, f.repo, "Direction", "ADM01", "pwd")

	students, err := f.svc.QueryStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, ade.ID, students[0].ID)
	assert.Equal(t, zoe.ID, students[1].ID)
}

func TestService_EditStudent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	amara := testutil.CreateStudent(t, f.repo, "Amara", "24G001", "old")
	admin := testutil.CreateAdmin(t, f.repo, "Direction", "ADM01", "pwd")

	acc, err := f.svc.EditStudent(ctx, amara.ID, account.UpdateStudent{Name: "Amara K.", Password: "new"})
	require.NoError(t, err)
	assert.Equal(t, "Amara K.", acc.Name)
	assert.Equal(t, "24G001", acc.Matricule, "the code never changes")

	_, err = f.svc.Authenticate(ctx, "24G001", "old", account.RoleStudent)
	assert.Equal(t, account.ErrInvalidCredentials, err)
	_, err = f.svc.Authenticate(ctx, "24G001", "new", account.RoleStudent)
	assert.NoError(t, err)

	_, err = f.svc.EditStudent(ctx, 404, account.UpdateStudent{Name: "x", Password: "x"})
	assert.Equal(t, account.ErrNotFound, errors.Cause(err))
	_, err = f.svc.EditStudent(ctx, admin.ID, account.UpdateStudent{Name: "x", Password: "x"})
	assert.Equal(t, account.ErrNotFound, errors.Cause(err), "administrators are not students")
}

func TestService_DeleteStudent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	amara := testutil.CreateStudent(t, f.repo, "Amara", "24G001", "pwd")
	bintou := testutil.CreateStudent(t, f.repo, "Bintou", "24G002", "pwd")
	algebra := testutil.CreateSubject(t, f.subRepo, "Algebra", 3)

	for _, session := range []string{"midterm", "final"} {
		_, err := f.gradeSvc.Record(ctx, amara.ID, algebra.ID, session, 15)
		require.NoError(t, err)
	}
	_, err := f.gradeSvc.Record(ctx, bintou.ID, algebra.ID, "midterm", 11)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteStudent(ctx, amara.ID))

	_, err = f.svc.GetByID(ctx, amara.ID)
	assert.Equal(t, account.ErrNotFound, errors.Cause(err))

	grades, err := f.gradeSvc.QueryByStudent(ctx, amara.ID)
	require.NoError(t, err)
	assert.Empty(t, grades)
	avg, err := f.gradeSvc.StudentAverage(ctx, amara.ID)
	require.NoError(t, err)
	assert.Zero(t, avg)

	grades, err = f.gradeSvc.QueryByStudent(ctx, bintou.ID)
	require.NoError(t, err)
	assert.Len(t, grades, 1, "other students keep their grades")

	err = f.svc.DeleteStudent(ctx, amara.ID)
	assert.Equal(t, account.ErrNotFound, errors.Cause(err))
}

// failingDelete fails to delete any account, after the grades are already gone.
type failingDelete struct {
	account.Repository
}

func (failingDelete) DeleteAccount(ctx context.Context, id int, exec ...core.DBExecutor) error {
	return assert.AnError
}

func TestService_DeleteStudent_rollback(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	amara := testutil.CreateStudent(t, f.repo, "Amara", "24G001", "pwd")
	algebra := testutil.CreateSubject(t, f.subRepo, "Algebra", 3)
	_, err := f.gradeSvc.Record(ctx, amara.ID, algebra.ID, "midterm", 15)
	require.NoError(t, err)

	svc := account.NewService(f.db, failingDelete{f.repo}, sqlxrepos.NewGradeRepository(f.db), f.conf)
	err = svc.DeleteStudent(ctx, amara.ID)
	assert.Equal(t, assert.AnError, errors.Cause(err))

	_, err = f.svc.GetStudent(ctx, amara.ID)
	assert.NoError(t, err)
	grades, err := f.gradeSvc.QueryByStudent(ctx, amara.ID)
	require.NoError(t, err)
	assert.Len(t, grades, 1, "grades are kept when the account cannot be deleted")
}

func TestService_Bootstrap(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Bootstrap(ctx, core.BootstrapConfig{AdminMatricule: "ADM01", AdminName: "Direction"})
	require.NoError(t, err)
	assert.False(t, created, "nothing is created without a configured password")

	conf := core.BootstrapConfig{AdminMatricule: "ADM01", AdminName: "Direction", AdminPassword: "from-env"}
	created, err = f.svc.Bootstrap(ctx, conf)
	require.NoError(t, err)
	assert.True(t, created)

	acc, err := f.svc.Authenticate(ctx, "ADM01", "from-env", account.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "Direction", acc.Name)

	conf.AdminPassword = "changed"
	created, err = f.svc.Bootstrap(ctx, conf)
	require.NoError(t, err)
	assert.False(t, created, "an administrator already exists")
	_, err = f.svc.Authenticate(ctx, "ADM01", "from-env", account.RoleAdmin)
	assert.NoError(t, err)
}

func TestService_SaveAdmin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	testutil.CreateStudent(t, f.repo, "Amara", "24G001", "pwd")

	acc, err := f.svc.SaveAdmin(ctx, "ADM02", "Censeur", "pwd1")
	require.NoError(t, err)
	assert.True(t, acc.IsAdmin())

	// update keeps the name when none is given
	acc2, err := f.svc.SaveAdmin(ctx, "ADM02", "", "pwd2")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, acc2.ID)
	assert.Equal(t, "Censeur", acc2.Name)
	_, err = f.svc.Authenticate(ctx, "ADM02", "pwd2", account.RoleAdmin)
	assert.NoError(t, err)

	_, err = f.svc.SaveAdmin(ctx, "24G001", "x", "x")
	assert.Equal(t, account.ErrMatriculeExists, err)
}

func TestService_ResetPassword(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	testutil.CreateStudent(t, f.repo, "Amara", "24G001", "old")

	require.NoError(t, f.svc.ResetPassword(ctx, "24G001", "new"))
	_, err := f.svc.Authenticate(ctx, "24G001", "new", account.RoleStudent)
	assert.NoError(t, err)

	err = f.svc.ResetPassword(ctx, "24G404", "new")
	assert.Equal(t, account.ErrNotFound, errors.Cause(err))
}
