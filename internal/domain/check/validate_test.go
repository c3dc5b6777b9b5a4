package check

import (
	"errors"
	"testing"
)

func intPtr(v int) *int { return &v }

func validRequest() CheckRequest {
	return CheckRequest{
		UserID:          "user-1",
		Age:             intPtr(34),
		Sex:             "female",
		SymptomsEntered: "I have a headache and fever",
	}
}

func TestValidateCheckRequest_Valid(t *testing.T) {
	req := validRequest()
	coerced, err := ValidateCheckRequest(&req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coerced {
		t.Error("valid sex should not be coerced")
	}
}

func TestValidateCheckRequest_RequiredFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CheckRequest)
		field  string
	}{
		{"missing userId", func(r *CheckRequest) { r.UserID = "" }, "userId"},
		{"missing symptoms", func(r *CheckRequest) { r.SymptomsEntered = "  " }, "symptomsEntered"},
		{"missing age", func(r *CheckRequest) { r.Age = nil }, "age"},
		{"missing sex", func(r *CheckRequest) { r.Sex = "" }, "sex"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			_, err := ValidateCheckRequest(&req)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, ve.Field)
			}
		})
	}
}

func TestValidateCheckRequest_AgeBounds(t *testing.T) {
	for _, age := range []int{-1, 121} {
		req := validRequest()
		req.Age = intPtr(age)
		if _, err := ValidateCheckRequest(&req); err == nil {
			t.Errorf("age %d should be rejected", age)
		}
	}
	for _, age := range []int{0, 120} {
		req := validRequest()
		req.Age = intPtr(age)
		if _, err := ValidateCheckRequest(&req); err != nil {
			t.Errorf("age %d should be accepted, got %v", age, err)
		}
	}
}

func TestValidateCheckRequest_SexNormalization(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		coerced bool
	}{
		{"Female", "female", false},
		{"MALE", "male", false},
		{"other", "male", true},
		{"x", "male", true},
	}
	for _, tc := range cases {
		req := validRequest()
		req.Sex = tc.in
		coerced, err := ValidateCheckRequest(&req)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.in, err)
		}
		if req.Sex != tc.want {
			t.Errorf("%q: expected %q, got %q", tc.in, tc.want, req.Sex)
		}
		if coerced != tc.coerced {
			t.Errorf("%q: expected coerced=%v, got %v", tc.in, tc.coerced, coerced)
		}
	}
}
