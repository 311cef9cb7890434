package user

import (
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

func testValidate(t *testing.T) *validator.Validate {
	t.Helper()
	validate, translator := core.NewValidator()
	RegisterValidators(validate, translator)
	return validate
}

func passwordErrTag(t *testing.T, err error) string {
	t.Helper()
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		t.Fatalf("expected validator.ValidationErrors, got %T: %v", err, err)
	}
	for _, ferr := range verrs {
		if ferr.Field() == "password" {
			return ferr.Tag()
		}
	}
	t.Fatalf("no password error in %v", verrs)
	return ""
}

func Test_validatePassword(t *testing.T) {
	validate := testValidate(t)

	tests := []struct {
		name    string
		pwd     string
		wantTag string // empty = valid
	}{
		{name: "valid", pwd: "Passw0rd"},
		{name: "valid with symbols", pwd: "S3cret-Pass!"},
		{name: "too short", pwd: "Sh0rt", wantTag: pwdMinLenTag},
		{name: "empty", pwd: "", wantTag: "required"},
		{name: "no uppercase", pwd: "passw0rd", wantTag: pwdComplexityTag},
		{name: "no lowercase", pwd: "PASSW0RD", wantTag: pwdComplexityTag},
		{name: "no digit", pwd: "Password", wantTag: pwdComplexityTag},
		{name: "whitespace", pwd: "Pass w0rd", wantTag: pwdNoSpaceTag},
		{name: "tab", pwd: "Pass\tw0rd", wantTag: pwdNoSpaceTag},
		{name: "similar to email", pwd: "Awe@test.cd1", wantTag: pwdAttrSimTag},
		{name: "similar to name", pwd: "Awesome Possum1", wantTag: pwdNoSpaceTag}, // space wins first
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := NewUser{Name: "Awesome Possum", Email: "awe@test.cd", Password: tt.pwd}
			err := validate.Struct(nu)
			if tt.wantTag == "" {
				if err != nil {
					t.Errorf("Struct() = %v; want no error", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Struct() = nil; want a password error")
			}
			if tag := passwordErrTag(t, err); tag != tt.wantTag {
				t.Errorf("password error tag = %q; want %q", tag, tt.wantTag)
			}
		})
	}
}

func Test_validatePassword_similarity(t *testing.T) {
	validate := testValidate(t)

	// near-identical to the name, no whitespace involved
	nu := NewUser{Name: "Christopher1", Email: "chris@test.cd", Password: "Christopher1"}
	err := validate.Struct(nu)
	if err == nil {
		t.Fatal("Struct() = nil; want a similarity error")
	}
	if tag := passwordErrTag(t, err); tag != pwdAttrSimTag {
		t.Errorf("password error tag = %q; want %q", tag, pwdAttrSimTag)
	}
}

func Test_changePassword_policyApplies(t *testing.T) {
	validate := testValidate(t)

	if err := validate.Struct(ChangePassword{Password: "weak"}); err == nil {
		t.Error("weak password must be rejected")
	}
	if err := validate.Struct(ChangePassword{Password: "S3cret-Pass"}); err != nil {
		t.Errorf("Struct() = %v; want no error", err)
	}
}
