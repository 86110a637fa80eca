package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersRegistered      uint64
	LoginSuccess         uint64
	LoginUnknownUser     uint64
	LoginInvalidPassword uint64
	LoginDurationCount   uint64
	LoginDurationTotalNs int64
	TokenValid           uint64
	TokenRejected        uint64
	TokenSuperseded      uint64
	SessionCacheHits     uint64
	SessionCacheMisses   uint64
	TasksCreated         uint64
	TasksUpdated         uint64
	TasksDeleted         uint64
}

// InMemoryRecorder stores counters in process memory. It backs /metrics.
type InMemoryRecorder struct {
	usersRegistered      atomic.Uint64
	loginSuccess         atomic.Uint64
	loginUnknownUser     atomic.Uint64
	loginInvalidPassword atomic.Uint64
	loginDurationCount   atomic.Uint64
	loginDurationTotalNs atomic.Int64
	tokenValid           atomic.Uint64
	tokenRejected        atomic.Uint64
	tokenSuperseded      atomic.Uint64
	sessionCacheHits     atomic.Uint64
	sessionCacheMisses   atomic.Uint64
	tasksCreated         atomic.Uint64
	tasksUpdated         atomic.Uint64
	tasksDeleted         atomic.Uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersRegistered:      m.usersRegistered.Load(),
		LoginSuccess:         m.loginSuccess.Load(),
		LoginUnknownUser:     m.loginUnknownUser.Load(),
		LoginInvalidPassword: m.loginInvalidPassword.Load(),
		LoginDurationCount:   m.loginDurationCount.Load(),
		LoginDurationTotalNs: m.loginDurationTotalNs.Load(),
		TokenValid:           m.tokenValid.Load(),
		TokenRejected:        m.tokenRejected.Load(),
		TokenSuperseded:      m.tokenSuperseded.Load(),
		SessionCacheHits:     m.sessionCacheHits.Load(),
		SessionCacheMisses:   m.sessionCacheMisses.Load(),
		TasksCreated:         m.tasksCreated.Load(),
		TasksUpdated:         m.tasksUpdated.Load(),
		TasksDeleted:         m.tasksDeleted.Load(),
	}
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	m.usersRegistered.Add(1)
}

// IncLogin increments the counter for a login outcome.
// Unknown outcomes are ignored.
func (m *InMemoryRecorder) IncLogin(outcome string) {
	switch outcome {
	case LoginSuccess:
		m.loginSuccess.Add(1)
	case LoginUnknownUser:
		m.loginUnknownUser.Add(1)
	case LoginInvalidPassword:
		m.loginInvalidPassword.Add(1)
	}
}

// ObserveLoginDuration records how long a login took, hashing included.
func (m *InMemoryRecorder) ObserveLoginDuration(duration time.Duration) {
	m.loginDurationCount.Add(1)
	m.loginDurationTotalNs.Add(duration.Nanoseconds())
}

// IncTokenCheck increments the counter for a token check outcome.
func (m *InMemoryRecorder) IncTokenCheck(outcome string) {
	switch outcome {
	case TokenValid:
		m.tokenValid.Add(1)
	case TokenRejected:
		m.tokenRejected.Add(1)
	case TokenSuperseded:
		m.tokenSuperseded.Add(1)
	}
}

func (m *InMemoryRecorder) IncSessionCacheHit()  { m.sessionCacheHits.Add(1) }
func (m *InMemoryRecorder) IncSessionCacheMiss() { m.sessionCacheMisses.Add(1) }

func (m *InMemoryRecorder) IncTaskCreated() { m.tasksCreated.Add(1) }
func (m *InMemoryRecorder) IncTaskUpdated() { m.tasksUpdated.Add(1) }
func (m *InMemoryRecorder) IncTaskDeleted() { m.tasksDeleted.Add(1) }
