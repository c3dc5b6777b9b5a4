package check

import "testing"

func TestNewTriageVerdict_KnownLevels(t *testing.T) {
	v := NewTriageVerdict(TriageConsultation)
	if v.Level != TriageConsultation {
		t.Errorf("expected consultation, got %q", v.Level)
	}
	if v.Description != "This requires medical consultation. Schedule an appointment with a healthcare provider." {
		t.Errorf("unexpected description: %q", v.Description)
	}
	if v.IsFallback {
		t.Error("upstream verdict should not be marked fallback")
	}
}

func TestNewTriageVerdict_UnknownLevelCoerced(t *testing.T) {
	v := NewTriageVerdict("call_the_president")
	if v.Level != TriageUnknown {
		t.Errorf("expected unknown, got %q", v.Level)
	}
	if v.Description == "" {
		t.Error("unknown level should still carry guidance text")
	}
}

func TestFallbackVerdict(t *testing.T) {
	v := FallbackVerdict()
	if v.Level != TriageSelfCare {
		t.Errorf("expected self_care, got %q", v.Level)
	}
	if !v.IsFallback {
		t.Error("fallback verdict must be marked as such")
	}
}

func TestNoLevelVerdict(t *testing.T) {
	v := NoLevelVerdict()
	if v.Level != TriageSelfCare {
		t.Errorf("expected self_care, got %q", v.Level)
	}
	if v.IsFallback {
		t.Error("a successful triage response without a level is not a fallback")
	}
}

func TestProjection(t *testing.T) {
	rec := SymptomCheckRecord{
		Evidence:            []Evidence{{FindingID: "s_1193", Name: "headache", PresenceState: "present"}},
		DiagnosisCandidates: []DiagnosisCandidate{{ConditionID: "c_1", Name: "Flu", Probability: 0.62}},
		Triage:              NewTriageVerdict(TriageConsultation),
	}
	p := rec.Projection()
	if len(p.Symptoms) != 1 || p.Symptoms[0].FindingID != "s_1193" {
		t.Errorf("unexpected symptoms: %+v", p.Symptoms)
	}
	if len(p.Conditions) != 1 || p.Conditions[0].Name != "Flu" {
		t.Errorf("unexpected conditions: %+v", p.Conditions)
	}
}
