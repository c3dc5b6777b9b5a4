package check

import "strings"

const (
	minAge = 0
	maxAge = 120
)

// Sex values the reasoning service accepts.
const (
	SexMale   = "male"
	SexFemale = "female"
)

// ValidateCheckRequest checks required fields and normalizes demographics
// in place. Sex is lower-cased; anything other than male or female is
// coerced to male for upstream compatibility, and the returned flag tells
// the caller the input was rewritten so it can log the normalization.
func ValidateCheckRequest(req *CheckRequest) (coerced bool, err error) {
	if strings.TrimSpace(req.UserID) == "" {
		return false, newValidationError("userId", "is required")
	}
	if strings.TrimSpace(req.SymptomsEntered) == "" {
		return false, newValidationError("symptomsEntered", "is required")
	}
	if req.Age == nil {
		return false, newValidationError("age", "is required")
	}
	if *req.Age < minAge || *req.Age > maxAge {
		return false, newValidationError("age", "must be between 0 and 120")
	}
	if strings.TrimSpace(req.Sex) == "" {
		return false, newValidationError("sex", "is required")
	}

	normalized := strings.ToLower(strings.TrimSpace(req.Sex))
	if normalized != SexMale && normalized != SexFemale {
		coerced = true
		normalized = SexMale
	}
	req.Sex = normalized
	return coerced, nil
}
