package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/litemap"
)

type Product struct {
	Id    int64
	Name  string `litemap:",unique"`
	Price float64
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var (
		cli CLI
		out bytes.Buffer
	)
	parser, err := newParser(&cli, &out)
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	err = ctx.Run()
	return out.String(), err
}

func seed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shop.db")
	db, err := litemap.Open(path, litemap.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	defer db.Close()
	_, err = litemap.CreateTable[Product](context.Background(), db)
	require.NoError(t, err)
	return path
}

func TestTables(t *testing.T) {
	dsn := seed(t)
	out, err := run(t, "--db", dsn, "tables")
	require.NoError(t, err)
	assert.Equal(t, "Product\n", out)
}

func TestDDL(t *testing.T) {
	dsn := seed(t)
	out, err := run(t, "--db", dsn, "ddl", "product")
	require.NoError(t, err)
	assert.Contains(t, out, `CREATE TABLE "Product"`)

	_, err = run(t, "--db", dsn, "ddl", "Missing")
	assert.EqualError(t, err, `table "Missing" not found`)
}

func TestColumns(t *testing.T) {
	dsn := seed(t)
	out, err := run(t, "--db", dsn, "columns", "Product")
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace([]byte(out)), []byte("\n"))
	require.Len(t, lines, 4)
	assert.Contains(t, string(lines[0]), "NAME")
	assert.Contains(t, string(lines[1]), "Id")
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "litemap.yaml")
	dsn := seed(t)

	out, err := run(t, "init", path, "--dsn", dsn, "--naming", "snake", "--flags", "implicit_pk,fts5")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := litemap.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, dsn, cfg.DSN)
	assert.Equal(t, "snake", cfg.Naming)
	assert.Equal(t, litemap.FlagList{"implicit_pk", "fts5"}, cfg.Flags)

	_, err = run(t, "init", path, "--dsn", dsn)
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "init", filepath.Join(dir, "bad.yaml"), "--dsn", dsn, "--naming", "camel")
	assert.ErrorContains(t, err, "unknown naming strategy")
	_, statErr := os.Stat(filepath.Join(dir, "bad.yaml"))
	assert.True(t, os.IsNotExist(statErr))

	out, err = run(t, "--config", path, "tables")
	require.NoError(t, err)
	assert.Equal(t, "Product\n", out)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "litemap "+version)
}
