package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionSerialization(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	stopped := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("serializes all fields", func(t *testing.T) {
		s := Session{
			ID:               "ab12cd34",
			UDID:             "F9266A2E-3B45-4C11-9E10-7A3F0E2B61D4",
			Name:             "iPhone 15",
			Runtime:          "com.apple.CoreSimulator.SimRuntime.iOS-17-2",
			State:            StateBooted,
			BootStrategy:     "direct",
			RequiredServices: []string{"backboardd", "SpringBoard"},
			SupervisorPID:    412,
			StartedAt:        now,
			StoppedAt:        &stopped,
			ExitReason:       "shutdown",
		}

		data, err := json.Marshal(s)
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))

		assert.Equal(t, "ab12cd34", m["id"])
		assert.Equal(t, "Booted", m["state"])
		assert.Equal(t, "direct", m["boot_strategy"])
		assert.Equal(t, float64(412), m["supervisor_pid"])
		assert.Equal(t, "shutdown", m["exit_reason"])
		assert.NotEmpty(t, m["stopped_at"])
	})

	t.Run("deserializes from JSON", func(t *testing.T) {
		input := `{
			"id": "ef56ab78",
			"udid": "F9266A2E-3B45-4C11-9E10-7A3F0E2B61D4",
			"state": "Booting",
			"boot_strategy": "application",
			"required_services": ["backboardd"],
			"started_at": "2026-03-10T10:00:00Z"
		}`

		var s Session
		require.NoError(t, json.Unmarshal([]byte(input), &s))

		assert.Equal(t, "ef56ab78", s.ID)
		assert.Equal(t, StateBooting, s.State)
		assert.Equal(t, "application", s.BootStrategy)
		assert.Equal(t, []string{"backboardd"}, s.RequiredServices)
		assert.Nil(t, s.StoppedAt)
	})

	t.Run("omitempty omits zero-value fields", func(t *testing.T) {
		s := Session{
			ID:        "gh90ij12",
			UDID:      "F9266A2E-3B45-4C11-9E10-7A3F0E2B61D4",
			State:     StateShutdown,
			StartedAt: now,
		}

		data, err := json.Marshal(s)
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))

		assert.NotContains(t, m, "supervisor_pid")
		assert.NotContains(t, m, "stopped_at")
		assert.NotContains(t, m, "exit_reason")
		assert.NotContains(t, m, "name")
	})
}
