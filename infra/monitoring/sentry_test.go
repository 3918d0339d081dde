package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremon "github.com/kilianp07/rakeplan/core/monitoring"
)

func TestNewSentryMonitorDisabled(t *testing.T) {
	m, err := NewSentryMonitor(coremon.Config{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestNewSentryMonitorInvalidDSN(t *testing.T) {
	_, err := NewSentryMonitor(coremon.Config{DSN: "::not a dsn"})
	assert.Error(t, err)
}

func TestSentryMonitorCapture(t *testing.T) {
	var events []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn: "https://public@example.com/1",
		BeforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			events = append(events, e)
			return nil
		},
	})
	require.NoError(t, err)
	m := &sentryMonitor{hub: sentry.NewHub(client, sentry.NewScope())}

	m.CaptureException(nil, nil)
	m.CaptureException(errors.New("publish failed"), map[string]string{"rake": "rake_001"})
	m.CaptureException(errors.New("plain"), nil)
	m.Flush(time.Second)

	require.Len(t, events, 2)
	assert.Equal(t, "rake_001", events[0].Tags["rake"])
	assert.Equal(t, "publish failed", events[0].Exception[0].Value)
}
