package user

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestUser_passwords(t *testing.T) {
	var usr User
	if err := usr.SetPassword("Passw0rd!"); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}

	if strings.Contains(string(usr.PasswordHash), "Passw0rd!") {
		t.Error("password must not be stored in the clear")
	}
	if cost, err := bcrypt.Cost(usr.PasswordHash); err != nil || cost != passwordHashCost {
		t.Errorf("hash cost = %d (err %v); want %d", cost, err, passwordHashCost)
	}

	if err := usr.CheckPassword("Passw0rd!"); err != nil {
		t.Errorf("CheckPassword() with the right password: %v", err)
	}
	if err := usr.CheckPassword("passw0rd!"); err == nil {
		t.Error("CheckPassword() must fail on a wrong password")
	}

	// re-hashing the same password yields a fresh salt
	prev := string(usr.PasswordHash)
	if err := usr.SetPassword("Passw0rd!"); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	if string(usr.PasswordHash) == prev {
		t.Error("SetPassword() must salt every hash")
	}
}

func TestUser_roles(t *testing.T) {
	admin := User{Role: RoleAdmin}
	student := User{Role: RoleStudent}

	if !admin.IsAdmin() || admin.IsStudent() {
		t.Errorf("admin role checks broken: %+v", admin)
	}
	if !student.IsStudent() || student.IsAdmin() {
		t.Errorf("student role checks broken: %+v", student)
	}
}
