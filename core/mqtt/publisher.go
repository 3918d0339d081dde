// Package mqtt declares how planned schedules are pushed to the rakes.
package mqtt

import (
	"errors"

	"github.com/kilianp07/rakeplan/core/model"
)

// ErrPublishFailed is returned once every publish attempt has failed.
var ErrPublishFailed = errors.New("publish failed")

// Publisher sends schedule assignments to the rake they are planned for.
type Publisher interface {
	PublishSchedule(s model.Schedule) error
}

// NopPublisher discards every schedule.
type NopPublisher struct{}

func (NopPublisher) PublishSchedule(model.Schedule) error { return nil }
