package model

import "time"

// OutcomeKind is the terminal state of a sync cycle.
type OutcomeKind string

const (
	OutcomeUpdated   OutcomeKind = "UPDATED"
	OutcomeNoSymbols OutcomeKind = "NO_SYMBOLS"
	OutcomeFailed    OutcomeKind = "FAILED"
)

// FailureKind classifies a failed cycle.
type FailureKind string

const (
	FailureNone          FailureKind = ""
	FailureNetwork       FailureKind = "NETWORK"
	FailureInvalidSymbol FailureKind = "INVALID_SYMBOL"
	FailureStoreWrite    FailureKind = "STORE_WRITE"
	FailureStoreRead     FailureKind = "STORE_READ"
)

// Outcome is the result of one sync cycle.
type Outcome struct {
	CycleID string
	Kind    OutcomeKind
	Count   int // records upserted
	Failure FailureKind
	Reason  error
	// Notice is the user-facing message for a failed cycle, empty otherwise.
	Notice  string
	Removed []string
}

// OK reports whether the cycle did not fail.
func (o Outcome) OK() bool { return o.Kind != OutcomeFailed }

// SyncRun is the audit row written for each cycle.
type SyncRun struct {
	CycleID    string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    OutcomeKind
	Failure    FailureKind
	Count      int
	Reason     string
}
