// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Login outcomes.
const (
	LoginSuccess         = "success"
	LoginUnknownUser     = "unknown_user"
	LoginInvalidPassword = "invalid_password"
)

// Token check outcomes.
const (
	TokenValid      = "valid"
	TokenRejected   = "rejected"
	TokenSuperseded = "superseded"
)

// Recorder captures metric events for the application.
type Recorder interface {
	// Auth metrics
	IncUserRegistered()
	IncLogin(outcome string)
	ObserveLoginDuration(duration time.Duration)
	IncTokenCheck(outcome string)
	IncSessionCacheHit()
	IncSessionCacheMiss()

	// Task metrics
	IncTaskCreated()
	IncTaskUpdated()
	IncTaskDeleted()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
