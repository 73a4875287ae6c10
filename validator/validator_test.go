package validator

import (
	"testing"
	"time"

	govalidator "github.com/go-playground/validator/v10"
)

func TestValidate_AllowsStructValueInput(t *testing.T) {
	t.Parallel()

	type Inner struct {
		Email string `validate:"required,email" error_msg:"required:email required|email:email invalid"`
	}
	type Req struct {
		Inner Inner
		When  time.Time
	}

	v := New()

	if err := v.Validate(Req{}); err == nil {
		t.Fatalf("expected validation error, got nil")
	}
}

func TestValidate_FieldKeyedErrors(t *testing.T) {
	t.Parallel()

	type Req struct {
		Name  string `validate:"required,max=5" error_msg:"required:name is required|max:name too long"`
		Email string `validate:"omitempty,email" error_msg:"email:invalid email"`
	}

	v := New()

	err := v.Validate(&Req{Name: "toolongname", Email: "not-an-email"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if msgs := verr.Get("Name"); len(msgs) != 1 || msgs[0] != "name too long" {
		t.Fatalf("unexpected Name errors: %v", msgs)
	}
	if msgs := verr.Get("Email"); len(msgs) != 1 || msgs[0] != "invalid email" {
		t.Fatalf("unexpected Email errors: %v", msgs)
	}
}

func TestRegisterRule(t *testing.T) {
	t.Parallel()

	type Req struct {
		Status string `validate:"required,evenlen" error_msg:"evenlen:length must be even"`
	}

	v := New()
	if err := v.RegisterRule("evenlen", func(fl govalidator.FieldLevel) bool {
		return len(fl.Field().String())%2 == 0
	}); err != nil {
		t.Fatalf("register rule: %v", err)
	}

	if err := v.Validate(&Req{Status: "ab"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := v.Validate(&Req{Status: "abc"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	verr := err.(*ValidationError)
	if msgs := verr.Get("Status"); len(msgs) != 1 || msgs[0] != "length must be even" {
		t.Fatalf("unexpected Status errors: %v", msgs)
	}
}
