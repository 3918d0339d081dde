package mqtt

import (
	"fmt"
	"sync"

	coremqtt "github.com/kilianp07/rakeplan/core/mqtt"
	"github.com/kilianp07/rakeplan/core/model"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// MockPublisher records published schedules. Used in tests.
type MockPublisher struct {
	mu        sync.Mutex
	Published []model.Schedule
	FailRakes map[string]bool
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{FailRakes: make(map[string]bool)}
}

// PublishSchedule records s or fails when its rake is listed in FailRakes.
func (m *MockPublisher) PublishSchedule(s model.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRakes[s.RakeID] {
		return fmt.Errorf("%w: rake %s", coremqtt.ErrPublishFailed, s.RakeID)
	}
	m.Published = append(m.Published, s)
	return nil
}

// Schedules returns a copy of the published schedules.
func (m *MockPublisher) Schedules() []model.Schedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Schedule(nil), m.Published...)
}
