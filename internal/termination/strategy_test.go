package termination

import (
	"errors"
	"testing"
	"time"

	"github.com/hnisiji/idb/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// fakeTarget simulates a process that dies after a number of liveness
// probes.
type fakeTarget struct {
	signals     []unix.Signal
	probesLeft  int
	signalErr   error
	escalateErr error
}

func newFakeStrategy(target *fakeTarget) *BackoffStrategy {
	return &BackoffStrategy{
		Delays: []time.Duration{time.Millisecond, time.Millisecond},
		signal: func(pid int, sig unix.Signal) error {
			target.signals = append(target.signals, sig)
			if sig == unix.SIGKILL && target.escalateErr != nil {
				return target.escalateErr
			}
			if target.signalErr != nil {
				return target.signalErr
			}
			return nil
		},
		alive: func(pid int) bool {
			if target.probesLeft <= 0 {
				return false
			}
			target.probesLeft--
			return true
		},
	}
}

func md() process.Metadata {
	return process.Metadata{Pid: 1234, Name: "testmanagerd"}
}

func TestKillDiesImmediately(t *testing.T) {
	target := &fakeTarget{probesLeft: 0}
	s := newFakeStrategy(target)

	require.NoError(t, s.Kill(md(), unix.SIGTERM))
	assert.Equal(t, []unix.Signal{unix.SIGTERM}, target.signals)
}

func TestKillDiesDuringBackoff(t *testing.T) {
	target := &fakeTarget{probesLeft: 1}
	s := newFakeStrategy(target)

	require.NoError(t, s.Kill(md(), unix.SIGTERM))
	// No escalation needed.
	assert.Equal(t, []unix.Signal{unix.SIGTERM}, target.signals)
}

func TestKillEscalatesToSigkill(t *testing.T) {
	target := &fakeTarget{probesLeft: 10}
	s := newFakeStrategy(target)

	require.NoError(t, s.Kill(md(), unix.SIGTERM))
	assert.Equal(t, []unix.Signal{unix.SIGTERM, unix.SIGKILL}, target.signals)
}

func TestKillSignalFailure(t *testing.T) {
	target := &fakeTarget{signalErr: errors.New("no such process")}
	s := newFakeStrategy(target)

	err := s.Kill(md(), unix.SIGTERM)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "testmanagerd(1234)")
}

func TestKillSurvivesSigkill(t *testing.T) {
	target := &fakeTarget{probesLeft: 10}
	s := newFakeStrategy(target)

	err := s.Kill(md(), unix.SIGKILL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "survived SIGKILL")
}

func TestKillAllCollectsFirstError(t *testing.T) {
	target := &fakeTarget{signalErr: errors.New("denied")}
	s := newFakeStrategy(target)

	procs := []process.Metadata{
		{Pid: 1, Name: "a"},
		{Pid: 2, Name: "b"},
	}
	err := s.KillAll(procs)
	require.Error(t, err)
	// Both processes were still attempted.
	assert.Len(t, target.signals, 2)
}

func TestKillAllEmpty(t *testing.T) {
	s := newFakeStrategy(&fakeTarget{})
	assert.NoError(t, s.KillAll(nil))
}
