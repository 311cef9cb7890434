package main

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

func testCLI(t *testing.T) *commandLine {
	t.Helper()

	conf := &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "Darasa",
		DefaultFromEmail: "noreply@test.cd",
	}
	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	return &commandLine{
		usrSvc:   user.NewService(conf, inmemdb.NewUserRepository(inmemdb.NewDB()), emailsvc.NewConsoleServiceMock(conf)),
		validate: validate,
	}
}

func mockPassword(t *testing.T, pwd string) {
	t.Helper()
	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func Test_commandLine_run_help(t *testing.T) {
	cli := testCLI(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "no command", args: []string{"admin"}},
		{name: "unknown command", args: []string{"admin", "frobnicate"}},
		{name: "addadmin missing flags", args: []string{"admin", "addadmin"}},
		{name: "addadmin missing email", args: []string{"admin", "addadmin", "-name", "Admin"}},
		{name: "migrate missing command", args: []string{"admin", "migrate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(tt.args); !errors.Is(err, errHelp) {
				t.Errorf("run(%v) = %v; want errHelp", tt.args, err)
			}
		})
	}
}

func Test_commandLine_run_addAdmin(t *testing.T) {
	t.Run("creates an admin account", func(t *testing.T) {
		cli := testCLI(t)
		mockPassword(t, "S3cret-Pass")

		if err := cli.run([]string{"admin", "addadmin", "-name", "Big Boss", "-email", "Boss@test.cd"}); err != nil {
			t.Fatalf("run(): %v", err)
		}

		usr, err := cli.usrSvc.GetByEmail(context.Background(), "boss@test.cd")
		if err != nil {
			t.Fatalf("GetByEmail(): %v", err)
		}
		if !usr.IsAdmin() {
			t.Errorf("role = %s; want %s", usr.Role, user.RoleAdmin)
		}
		if err = usr.CheckPassword("S3cret-Pass"); err != nil {
			t.Errorf("CheckPassword(): %v", err)
		}
	})

	t.Run("empty password", func(t *testing.T) {
		cli := testCLI(t)
		mockPassword(t, "")

		err := cli.run([]string{"admin", "addadmin", "-name", "Big Boss", "-email", "boss@test.cd"})
		if !errors.Is(err, errHelp) {
			t.Errorf("run() = %v; want errHelp", err)
		}
	})

	t.Run("weak password", func(t *testing.T) {
		cli := testCLI(t)
		mockPassword(t, "weak")

		err := cli.run([]string{"admin", "addadmin", "-name", "Big Boss", "-email", "boss@test.cd"})
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Errorf("run() = %v; want a password validation error", err)
		}
	})

	t.Run("email taken", func(t *testing.T) {
		cli := testCLI(t)
		mockPassword(t, "S3cret-Pass")
		if _, err := cli.usrSvc.Create(context.Background(), user.NewUser{
			Name: "First", Email: "boss@test.cd", Password: "S3cret-Pass", Role: user.RoleAdmin,
		}); err != nil {
			t.Fatalf("Create(): %v", err)
		}

		err := cli.run([]string{"admin", "addadmin", "-name", "Second", "-email", "boss@test.cd"})
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("run() = %v; want a validation error", err)
		}
	})
}

func Test_commandLine_run_migrate(t *testing.T) {
	cli := testCLI(t)

	var gotCmd string
	var gotArgs []string
	orig := migrateRunFunc
	migrateRunFunc = func(db *sql.DB, command string, args ...string) error {
		gotCmd = command
		gotArgs = args
		return nil
	}
	t.Cleanup(func() { migrateRunFunc = orig })

	if err := cli.run([]string{"admin", "migrate", "up-to", "2"}); err != nil {
		t.Fatalf("run(): %v", err)
	}
	if gotCmd != "up-to" {
		t.Errorf("command = %q; want %q", gotCmd, "up-to")
	}
	if len(gotArgs) != 1 || gotArgs[0] != "2" {
		t.Errorf("args = %v; want [2]", gotArgs)
	}
}
