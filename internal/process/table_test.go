package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleUDID = "F9266A2E-3B45-4C11-9E10-7A3F0E2B61D4"

var samplePS = []byte(`    1     0 /sbin/launchd
  310     1 /Applications/Xcode.app/Contents/Developer/Applications/Simulator.app/Contents/MacOS/Simulator -CurrentDeviceUDID F9266A2E-3B45-4C11-9E10-7A3F0E2B61D4
  412     1 /Library/Developer/CoreSimulator/launchd_sim -s /Users/ci/Library/Developer/CoreSimulator/Devices/F9266A2E-3B45-4C11-9E10-7A3F0E2B61D4/data
  501   412 /usr/libexec/backboardd
  502   412 /Applications/SpringBoard.app/SpringBoard
  503   412 /usr/libexec/installd

bogus line without pid
`)

func fakeQuery() *TableQuery {
	return &TableQuery{runPS: func() ([]byte, error) { return samplePS, nil }}
}

func TestParseTable(t *testing.T) {
	entries := parseTable(samplePS)
	require.Len(t, entries, 6)

	assert.Equal(t, 1, entries[0].Pid)
	assert.Equal(t, 0, entries[0].ParentPid)
	assert.Equal(t, "launchd", entries[0].Name)

	assert.Equal(t, 412, entries[2].Pid)
	assert.Equal(t, "launchd_sim", entries[2].Name)
	assert.Contains(t, entries[2].command, sampleUDID)
}

func TestInfoFor(t *testing.T) {
	q := fakeQuery()

	md := q.InfoFor(501)
	require.NotNil(t, md)
	assert.Equal(t, "backboardd", md.Name)
	assert.Equal(t, 412, md.ParentPid)

	assert.Nil(t, q.InfoFor(9999))
}

func TestParentOf(t *testing.T) {
	q := fakeQuery()

	ppid, ok := q.ParentOf(502)
	require.True(t, ok)
	assert.Equal(t, 412, ppid)

	_, ok = q.ParentOf(9999)
	assert.False(t, ok)
}

func TestChildrenOf(t *testing.T) {
	q := fakeQuery()

	children := q.ChildrenOf(412)
	require.Len(t, children, 3)

	names := make([]string, 0, len(children))
	for _, c := range children {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"backboardd", "SpringBoard", "installd"}, names)

	assert.Empty(t, q.ChildrenOf(501))
}

func TestSupervisorFor(t *testing.T) {
	q := fakeQuery()

	md := q.SupervisorFor(sampleUDID)
	require.NotNil(t, md)
	assert.Equal(t, 412, md.Pid)
	assert.Equal(t, "launchd_sim", md.Name)

	assert.Nil(t, q.SupervisorFor("0000-not-a-device"))
}

func TestApplicationFor(t *testing.T) {
	q := fakeQuery()

	md := q.ApplicationFor(sampleUDID)
	require.NotNil(t, md)
	assert.Equal(t, 310, md.Pid)
	assert.Equal(t, "Simulator", md.Name)

	assert.Nil(t, q.ApplicationFor("0000-not-a-device"))
}
