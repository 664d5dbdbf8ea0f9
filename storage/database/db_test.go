package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/scolarite/core"
)

func Test_dsn(t *testing.T) {
	tests := []struct {
		name    string
		db      core.DatabaseConfig
		dbName  string
		want    string
		wantErr bool
	}{
		{
			name: "sqlite",
			db:   core.DatabaseConfig{Engine: core.EngineSQLite, Path: "/tmp/scolarite.db"},
			want: "file:/tmp/scolarite.db?_pragma=foreign_keys%281%29&_pragma=busy_timeout%285000%29&_pragma=journal_mode%28WAL%29",
		},
		{
			name: "sqlite path with URI delimiters",
			db:   core.DatabaseConfig{Engine: core.EngineSQLite, Path: "/tmp/notes?#1 .db"},
			want: "file:/tmp/notes%3F%231%20.db?_pragma=foreign_keys%281%29&_pragma=busy_timeout%285000%29&_pragma=journal_mode%28WAL%29",
		},
		{
			name:   "postgres",
			db:     core.DatabaseConfig{Engine: core.EnginePostgres, Host: "db", Port: "5432", User: "app", Password: "s3cr3t", Name: "scolarite"},
			dbName: "scolarite",
			want:   "postgres://app:s3cr3t@db:5432/scolarite?sslmode=require&timezone=utc",
		},
		{
			name:   "postgres without TLS",
			db:     core.DatabaseConfig{Engine: core.EnginePostgres, Host: "db", Port: "5432", User: "app", Password: "s3cr3t", DisableTLS: true},
			dbName: "postgres",
			want:   "postgres://app:s3cr3t@db:5432/postgres?sslmode=disable&timezone=utc",
		},
		{name: "unknown engine", db: core.DatabaseConfig{Engine: "mysql"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dsn(tt.dbName, &core.Config{Database: tt.db})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_migrationsLayout(t *testing.T) {
	assert.Equal(t, "migrations/sqlite", MigrationsDir(core.EngineSQLite))
	assert.Equal(t, "migrations/postgres", MigrationsDir(core.EnginePostgres))
	assert.Equal(t, "sqlite3", gooseDialect(core.EngineSQLite))
	assert.Equal(t, "postgres", gooseDialect(core.EnginePostgres))
}
