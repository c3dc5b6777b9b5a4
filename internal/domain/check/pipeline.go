package check

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/symcheck/symcheck/internal/platform/reasoner"
)

// stagePolicy declares how a stage failure affects the pipeline. The
// asymmetry between stages is data here, not control flow buried in the
// run loop.
type stagePolicy int

const (
	// failFast aborts the whole run; nothing is persisted.
	failFast stagePolicy = iota
	// fallbackOnError recovers locally and lets the run continue.
	fallbackOnError
)

type stage struct {
	name    string
	policy  stagePolicy
	run     func(ctx context.Context, st *runState) error
	recover func(st *runState)
}

// runState carries intermediate results between stages of one run.
type runState struct {
	req        CheckRequest
	evidence   []Evidence
	candidates []DiagnosisCandidate
	verdict    TriageVerdict
	record     *SymptomCheckRecord
}

// Pipeline turns a validated check request into a persisted record by
// calling the remote reasoning service in three sequential stages and
// writing the result. Each stage runs under its own timeout so a hung
// upstream cannot block a caller indefinitely.
type Pipeline struct {
	reasoner     reasoner.Client
	records      RecordRepository
	stageTimeout time.Duration
	logger       zerolog.Logger
}

func NewPipeline(client reasoner.Client, records RecordRepository, stageTimeout time.Duration, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		reasoner:     client,
		records:      records,
		stageTimeout: stageTimeout,
		logger:       logger,
	}
}

// Run executes the full pipeline. It returns the stored record on success.
// On failure the returned error carries the category the handler maps to a
// status code; no record is visible to readers unless every stage before
// persistence succeeded.
func (p *Pipeline) Run(ctx context.Context, req CheckRequest) (*SymptomCheckRecord, error) {
	st := &runState{req: req}

	stages := []stage{
		{name: "extract", policy: failFast, run: p.extract},
		{name: "diagnose", policy: failFast, run: p.diagnose},
		{name: "triage", policy: fallbackOnError, run: p.triage, recover: func(st *runState) {
			st.verdict = FallbackVerdict()
		}},
		{name: "persist", policy: failFast, run: p.persist},
	}

	for _, s := range stages {
		stageCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
		err := s.run(stageCtx, st)
		cancel()
		if err == nil {
			continue
		}
		if s.policy == fallbackOnError {
			p.logger.Warn().Err(err).Str("stage", s.name).Msg("stage degraded, applying fallback")
			s.recover(st)
			continue
		}
		p.logger.Error().Err(err).Str("stage", s.name).Msg("pipeline aborted")
		return nil, mapStageError(err)
	}

	return st.record, nil
}

func (p *Pipeline) extract(ctx context.Context, st *runState) error {
	findings, err := p.reasoner.Parse(ctx, st.req.SymptomsEntered, *st.req.Age, st.req.Sex)
	if err != nil {
		return err
	}
	if len(findings) == 0 {
		return ErrNoEvidence
	}
	st.evidence = toEvidence(findings)
	return nil
}

func (p *Pipeline) diagnose(ctx context.Context, st *runState) error {
	conditions, err := p.reasoner.Diagnose(ctx, toFindings(st.evidence), *st.req.Age, st.req.Sex, true)
	if err != nil {
		return err
	}
	// An empty candidate list is a legitimate outcome, not a failure.
	st.candidates = toCandidates(conditions)
	return nil
}

func (p *Pipeline) triage(ctx context.Context, st *runState) error {
	result, err := p.reasoner.Triage(ctx, toFindings(st.evidence), *st.req.Age, st.req.Sex)
	if err != nil {
		return err
	}
	if result.Level == "" {
		st.verdict = NoLevelVerdict()
		return nil
	}
	st.verdict = NewTriageVerdict(result.Level)
	return nil
}

func (p *Pipeline) persist(ctx context.Context, st *runState) error {
	rec := &SymptomCheckRecord{
		UserID:              st.req.UserID,
		OriginalText:        st.req.SymptomsEntered,
		Evidence:            st.evidence,
		DiagnosisCandidates: st.candidates,
		Triage:              st.verdict,
		Age:                 *st.req.Age,
		Sex:                 st.req.Sex,
	}
	if err := p.records.Save(ctx, rec); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	st.record = rec
	return nil
}

// mapStageError translates transport-level failures into the categories
// the handler exposes. Rate limits keep the upstream's own message so it
// reaches the caller verbatim.
func mapStageError(err error) error {
	var rateLimited *reasoner.RateLimitError
	switch {
	case errors.Is(err, ErrNoEvidence):
		return ErrNoEvidence
	case errors.Is(err, reasoner.ErrUnauthorized):
		return ErrUpstreamAuth
	case errors.As(err, &rateLimited):
		return &RateLimitedError{Message: rateLimited.Message}
	default:
		return err
	}
}

func toEvidence(findings []reasoner.Finding) []Evidence {
	out := make([]Evidence, 0, len(findings))
	for _, f := range findings {
		state := f.ChoiceID
		switch state {
		case PresencePresent, PresenceAbsent, PresenceUnknown:
		default:
			state = PresenceUnknown
		}
		out = append(out, Evidence{FindingID: f.ID, Name: f.Name, PresenceState: state})
	}
	return out
}

func toFindings(evidence []Evidence) []reasoner.Finding {
	out := make([]reasoner.Finding, 0, len(evidence))
	for _, e := range evidence {
		out = append(out, reasoner.Finding{ID: e.FindingID, Name: e.Name, ChoiceID: e.PresenceState})
	}
	return out
}

func toCandidates(conditions []reasoner.Condition) []DiagnosisCandidate {
	out := make([]DiagnosisCandidate, 0, len(conditions))
	for _, c := range conditions {
		out = append(out, DiagnosisCandidate{ConditionID: c.ID, Name: c.Name, Probability: c.Probability})
	}
	return out
}
