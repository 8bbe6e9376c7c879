package main

import (
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-proxy-api/migrations"
)

func TestRunDispatchesToGoose(t *testing.T) {
	original := gooseRun
	t.Cleanup(func() { gooseRun = original })

	var gotCommand, gotDir string
	var gotArgs []string
	gooseRun = func(command string, db *sql.DB, dir string, args ...string) error {
		gotCommand, gotDir, gotArgs = command, dir, args
		switch command {
		case "up", "down", "redo", "reset", "status", "version":
			return nil
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
			return nil
		default:
			return fmt.Errorf("%q: no such command", command)
		}
	}

	tests := []struct {
		name       string
		args       []string
		wantErr    error
		wantErrStr string
	}{
		{name: "no command", args: nil, wantErr: errUsage},
		{name: "unknown command", args: []string{"lol"}, wantErrStr: `"lol": no such command`},
		{name: "up", args: []string{"up"}},
		{name: "up-to", args: []string{"up-to", "4"}},
		{name: "up-to non-int", args: []string{"up-to", "four"}, wantErrStr: "version must be a number (got 'four')"},
		{name: "down-to missing version", args: []string{"down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "status", args: []string{"status"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(nil, tt.args)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.args[0], gotCommand)
				assert.Equal(t, ".", gotDir)
				assert.Equal(t, tt.args[1:], gotArgs)
			}
		})
	}
}

func TestMigrationsAreEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	assert.Len(t, files, 5)

	body, err := fs.ReadFile(migrations.FS, "00004_proxy_assignments.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "proxy_assignments_class_uniq")
	assert.Contains(t, string(body), "proxy_assignments_substitute_uniq")
}
