package db

import (
	"path/filepath"
	"strings"
	"testing"

	"ac-server/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func TestDriverAliases(t *testing.T) {
	assert.Equal(t, "mysql", Driver("MariaDB"))
	assert.Equal(t, "postgres", Driver("postgresql"))
	assert.Equal(t, "sqlite", Driver(" sqlite3 "))
	assert.Equal(t, "oracle", Driver("oracle"))
}

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN(config.DatabaseConfig{
		Host: "db", Port: 3306, Username: "u", Password: "p", Database: "ac",
	})
	assert.True(t, strings.HasPrefix(dsn, "u:p@tcp(db:3306)/ac?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.DatabaseConfig{
		Host: "pg", Port: 5432, Username: "u", Password: "p", Database: "ac",
	})
	assert.Contains(t, dsn, "host=pg")
	assert.Contains(t, dsn, "sslmode=disable")
	assert.Contains(t, dsn, "TimeZone=UTC")
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
}

func TestOpenSQLiteAndEnsureTables(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "nested", "ac.db")}
	gdb, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	require.NoError(t, HealthCheck(gdb))
	require.NoError(t, EnsureTables(gdb, &widget{}))
	// 第二次调用不能报错
	require.NoError(t, EnsureTables(gdb, &widget{}))
	assert.True(t, gdb.Migrator().HasTable(&widget{}))
}
