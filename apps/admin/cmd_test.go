package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/ecrmi/institute/core/admin"
	dummydb "github.com/ecrmi/institute/storage/database/dummy"
)

func setup(t *testing.T) *commandLine {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}
	return &commandLine{
		admSvc: admin.NewService(dummydb.NewAdminRepository(db)),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func runCliTests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			readPasswordFunc = func(fd int) ([]byte, error) {
				return []byte(tt.pwd), nil
			}

			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
				}
			case err != nil:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var called bool
	migrateFunc = func(db *sqlx.DB) error {
		called = true
		return nil
	}

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "migrate", args: []string{"migrate"}},
	}
	runCliTests(t, cli, tests)

	if !called {
		t.Error("migrate did not run")
	}

	migrateFunc = func(db *sqlx.DB) error { return fmt.Errorf("relation already exists") }
	runCliTests(t, cli, []cliTest{
		{name: "migrate error", args: []string{"migrate"}, wantErrStr: "relation already exists"},
	})
}

func Test_commandLine_createAdmin(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no email", args: []string{"createadmin"}, wantErr: errHelp},
		{name: "empty password", args: []string{"createadmin", "-email", "reg@test.ecrmi.org"}, wantErr: errHelp},
		{name: "ok", args: []string{"createadmin", "-email", "reg@test.ecrmi.org"}, pwd: "S3cret-Pass!"},
		{
			name: "duplicate email", args: []string{"createadmin", "-email", "reg@test.ecrmi.org"}, pwd: "S3cret-Pass!",
			wantErr: admin.ErrEmailExists,
		},
	}
	runCliTests(t, cli, tests)

	if _, err := cli.admSvc.Authenticate(context.Background(), "reg@test.ecrmi.org", "S3cret-Pass!"); err != nil {
		t.Errorf("created admin cannot authenticate: %v", err)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	runCliTests(t, cli, []cliTest{
		{name: "seed admin", args: []string{"createadmin", "-email", "reg@test.ecrmi.org"}, pwd: "Old-Pass-1!"},
	})

	tests := []cliTest{
		{name: "no email", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "empty password", args: []string{"resetpassword", "-email", "reg@test.ecrmi.org"}, wantErr: errHelp},
		{name: "unknown email", args: []string{"resetpassword", "-email", "nobody@test.ecrmi.org"}, pwd: "New-Pass-1!", wantErr: admin.ErrNotFound},
		{name: "ok", args: []string{"resetpassword", "-email", "reg@test.ecrmi.org"}, pwd: "New-Pass-1!"},
	}
	runCliTests(t, cli, tests)

	ctx := context.Background()
	if _, err := cli.admSvc.Authenticate(ctx, "reg@test.ecrmi.org", "New-Pass-1!"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
	if _, err := cli.admSvc.Authenticate(ctx, "reg@test.ecrmi.org", "Old-Pass-1!"); err != admin.ErrInvalidCredentials {
		t.Errorf("old password still accepted: %v", err)
	}
}
