package citation

import (
	"context"
	"time"
)

// Outcome classifies the result of an external verification attempt.
// NotFound and Unavailable are deliberately distinct: the former says the
// database answered and had no such case, the latter says no answer was
// obtained at all.
type Outcome string

const (
	// OutcomeVerified means the external database confirmed the citation.
	OutcomeVerified Outcome = "verified"
	// OutcomeNotFound means the database answered but knows no such case.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeUnavailable means the lookup could not be completed (network
	// failure, missing credentials, rate limiting exhausted retries).
	OutcomeUnavailable Outcome = "unavailable"
	// OutcomeUnverifiable means the citation's reporter cannot be checked
	// through the configured database (e.g. Westlaw slip numbers).
	OutcomeUnverifiable Outcome = "unverifiable"
)

// LookupResult is what an external case-law lookup returns for a citation.
type LookupResult struct {
	Outcome  Outcome
	CaseName string
	Date     string
	URL      string
	Court    string
	Source   string
}

// Verifier is the port to an external case-law database.  LookupCase never
// returns a nil result together with a nil error; transport failures are
// reported either as an error or as an Unavailable outcome, at the
// adapter's discretion.
type Verifier interface {
	// LookupCase resolves a citation string, optionally guided by an
	// extracted case-name hint.
	LookupCase(ctx context.Context, cite string, nameHint string) (*LookupResult, error)
}

// VerificationRecord is a persisted verification result.  One row per
// normalized citation; re-verification overwrites.
type VerificationRecord struct {
	ID        string    `json:"id"`
	Citation  string    `json:"citation"`
	Outcome   Outcome   `json:"outcome"`
	CaseName  string    `json:"case_name,omitempty"`
	Date      string    `json:"date,omitempty"`
	URL       string    `json:"url,omitempty"`
	Court     string    `json:"court,omitempty"`
	Source    string    `json:"source,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// VerificationStore persists verification outcomes so that repeated
// documents citing the same authorities skip the external round trip.
type VerificationStore interface {
	Save(ctx context.Context, rec *VerificationRecord) error
	// Get returns the stored record for the normalized form of cite, or a
	// not-found error.
	Get(ctx context.Context, cite string) (*VerificationRecord, error)
	// ListRecent returns the most recently checked records, newest first.
	ListRecent(ctx context.Context, limit int) ([]*VerificationRecord, error)
}

// VerificationCache is a fast shared cache in front of the store and the
// external verifier.  Implementations must treat a miss as (nil, false, nil).
type VerificationCache interface {
	Get(ctx context.Context, cite string) (*LookupResult, bool, error)
	Set(ctx context.Context, cite string, result *LookupResult) error
}
