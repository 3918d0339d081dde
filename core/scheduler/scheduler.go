package scheduler

import (
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/rakeplan/core/logger"
)

// Scheduler runs the scheduling operations. The zero value is usable and
// falls back to the wall clock, random UUIDs and a no-op logger.
type Scheduler struct {
	// Now returns the reference time for maintenance and notice checks.
	Now func() time.Time
	// NewID generates identifiers for created schedules.
	NewID func() string
	Log   logger.Logger
}

// New returns a Scheduler logging to log.
func New(log logger.Logger) *Scheduler {
	return &Scheduler{Log: log}
}

func (s *Scheduler) now() time.Time {
	if s == nil || s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Scheduler) newID() string {
	if s == nil || s.NewID == nil {
		return "schedule_" + uuid.NewString()
	}
	return s.NewID()
}

func (s *Scheduler) log() logger.Logger {
	if s == nil {
		return logger.Nop{}
	}
	return logger.OrNop(s.Log)
}
