package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	ups     int
	downs   int
	version uint
	dirty   bool
	upErr   error
	closed  bool
}

func (f *fakeMigrator) Up() error {
	f.ups++
	return f.upErr
}

func (f *fakeMigrator) Down() error {
	f.downs++
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) {
	return f.version, f.dirty, nil
}

func (f *fakeMigrator) Close() error {
	f.closed = true
	return nil
}

func useFakeMigrator(t *testing.T, fake *fakeMigrator) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("DATABASE_URL", "postgres://localhost/postboard")

	orig := newMigrator
	newMigrator = func(string) (migrator, error) { return fake, nil }
	t.Cleanup(func() { newMigrator = orig })
}

func execute(args ...string) (string, error) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	output, err := execute("--help")
	require.NoError(t, err)

	for _, sub := range []string{"serve", "migrate"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestMigrateCommand(t *testing.T) {
	fake := &fakeMigrator{version: 2}
	useFakeMigrator(t, fake)

	output, err := execute("migrate")
	require.NoError(t, err)
	assert.Contains(t, output, "Migrations completed successfully")
	assert.Equal(t, 1, fake.ups)
	assert.True(t, fake.closed)

	output, err = execute("migrate", "version")
	require.NoError(t, err)
	assert.Contains(t, output, "Version: 2")

	_, err = execute("migrate", "down")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.downs)
}

func TestMigrateCommandPropagatesError(t *testing.T) {
	fake := &fakeMigrator{upErr: errors.New("dirty database")}
	useFakeMigrator(t, fake)

	_, err := execute("migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dirty database")
	assert.True(t, fake.closed)
}

func TestMigrateCommandRequiresDatabaseURL(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("DATABASE_URL", "")

	_, err := execute("migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
