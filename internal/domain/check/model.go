package check

import (
	"time"

	"github.com/google/uuid"
)

// Presence states a finding can carry.
const (
	PresencePresent = "present"
	PresenceAbsent  = "absent"
	PresenceUnknown = "unknown"
)

// Evidence is one normalized clinical finding extracted from free text.
type Evidence struct {
	FindingID     string `db:"finding_id" json:"findingId"`
	Name          string `db:"name" json:"name"`
	PresenceState string `db:"presence_state" json:"presenceState"`
}

// DiagnosisCandidate is one ranked condition with an independent posterior
// probability. Probabilities across a list are not required to sum to 1.
type DiagnosisCandidate struct {
	ConditionID string  `db:"condition_id" json:"conditionId"`
	Name        string  `db:"name" json:"name"`
	Probability float64 `db:"probability" json:"probability"`
}

// Triage levels, ordered from most to least urgent.
const (
	TriageEmergencyAmbulance = "emergency_ambulance"
	TriageEmergencyRoom      = "emergency_room"
	TriageConsultation24     = "consultation_24"
	TriageConsultation       = "consultation"
	TriageSelfCare           = "self_care"
	TriageUnknown            = "unknown"
)

// triageDescriptions is the static guidance text per level. Levels the
// upstream returns that are not in this table map to TriageUnknown.
var triageDescriptions = map[string]string{
	TriageEmergencyAmbulance: "Call an ambulance immediately. These symptoms may indicate a life-threatening condition.",
	TriageEmergencyRoom:      "Go to the nearest emergency department as soon as possible.",
	TriageConsultation24:     "See a doctor within the next 24 hours.",
	TriageConsultation:       "This requires medical consultation. Schedule an appointment with a healthcare provider.",
	TriageSelfCare:           "Your symptoms can likely be managed with self care. Seek medical advice if they persist or worsen.",
	TriageUnknown:            "The urgency of your symptoms could not be determined. Consult a healthcare provider for guidance.",
}

// Guidance text used when a verdict is synthesized locally rather than
// looked up from the level table.
const (
	fallbackDescription = "Unable to determine triage level. If your symptoms persist or worsen, consult a healthcare provider."
	noLevelDescription  = "No urgent medical condition detected. Monitor your symptoms and seek advice if they change."
)

// TriageVerdict is the urgency classification attached to a record.
// IsFallback marks verdicts synthesized locally because the upstream
// classifier failed or was unreachable.
type TriageVerdict struct {
	Level       string `db:"level" json:"level"`
	Description string `db:"description" json:"description"`
	IsFallback  bool   `db:"is_fallback" json:"isFallback"`
}

// NewTriageVerdict builds a verdict for an upstream-reported level,
// coercing unrecognized levels to unknown.
func NewTriageVerdict(level string) TriageVerdict {
	desc, ok := triageDescriptions[level]
	if !ok {
		return TriageVerdict{Level: TriageUnknown, Description: triageDescriptions[TriageUnknown]}
	}
	return TriageVerdict{Level: level, Description: desc}
}

// FallbackVerdict is the conservative default used when the triage stage
// fails. The caller still gets actionable guidance.
func FallbackVerdict() TriageVerdict {
	return TriageVerdict{Level: TriageSelfCare, Description: fallbackDescription, IsFallback: true}
}

// NoLevelVerdict covers a successful triage response that carried no level.
func NoLevelVerdict() TriageVerdict {
	return TriageVerdict{Level: TriageSelfCare, Description: noLevelDescription}
}

// SymptomCheckRecord is one completed pipeline run. Records are immutable
// after creation: there is no update path, only create, read, and delete.
type SymptomCheckRecord struct {
	ID                  uuid.UUID            `db:"id" json:"id"`
	UserID              string               `db:"user_id" json:"userId"`
	OriginalText        string               `db:"original_text" json:"originalText"`
	Evidence            []Evidence           `db:"evidence" json:"evidence"`
	DiagnosisCandidates []DiagnosisCandidate `db:"diagnosis_candidates" json:"diagnosisCandidates"`
	Triage              TriageVerdict        `db:"triage" json:"triage"`
	Age                 int                  `db:"age" json:"age"`
	Sex                 string               `db:"sex" json:"sex"`
	CreatedAt           time.Time            `db:"created_at" json:"createdAt"`
}

// CheckRequest is the inbound payload for a symptom check.
type CheckRequest struct {
	UserID          string `json:"userId"`
	Age             *int   `json:"age"`
	Sex             string `json:"sex"`
	SymptomsEntered string `json:"symptomsEntered"`
}

// CheckResult is the public projection of a stored record returned to
// the caller.
type CheckResult struct {
	ID         uuid.UUID            `json:"id"`
	Symptoms   []Evidence           `json:"symptoms"`
	Conditions []DiagnosisCandidate `json:"conditions"`
	Triage     TriageVerdict        `json:"triage"`
	Timestamp  time.Time            `json:"timestamp"`
}

// Projection converts a stored record into its public shape.
func (r *SymptomCheckRecord) Projection() CheckResult {
	return CheckResult{
		ID:         r.ID,
		Symptoms:   r.Evidence,
		Conditions: r.DiagnosisCandidates,
		Triage:     r.Triage,
		Timestamp:  r.CreatedAt,
	}
}
