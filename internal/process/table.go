package process

import (
	"bufio"
	"os/exec"
	"strconv"
	"strings"
)

const (
	supervisorName  = "launchd_sim"
	applicationName = "Simulator"
)

// entry is one parsed row of the process table, with the full command
// line retained so device ownership can be matched by argument.
type entry struct {
	Metadata
	command string
}

// TableQuery implements Query over the OS process table by shelling
// out to ps. Every call re-reads the table; results are point-in-time
// snapshots.
type TableQuery struct {
	// runPS is replaced in tests to feed canned ps output.
	runPS func() ([]byte, error)
}

// NewTableQuery creates a Query backed by the live process table.
func NewTableQuery() *TableQuery {
	return &TableQuery{
		runPS: func() ([]byte, error) {
			return exec.Command("ps", "-axo", "pid=,ppid=,command=").Output()
		},
	}
}

func (q *TableQuery) snapshot() []entry {
	out, err := q.runPS()
	if err != nil {
		return nil
	}
	return parseTable(out)
}

// parseTable parses "pid ppid command args..." rows.
func parseTable(out []byte) []entry {
	var entries []entry
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		ppid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		command := strings.Join(fields[2:], " ")
		entries = append(entries, entry{
			Metadata: Metadata{
				Pid:       pid,
				ParentPid: ppid,
				Name:      baseName(fields[2]),
			},
			command: command,
		})
	}
	return entries
}

// baseName trims the directory part of an executable path.
func baseName(executable string) string {
	if idx := strings.LastIndex(executable, "/"); idx >= 0 {
		return executable[idx+1:]
	}
	return executable
}

// InfoFor returns metadata for a pid, or nil if it is not running.
func (q *TableQuery) InfoFor(pid int) *Metadata {
	for _, e := range q.snapshot() {
		if e.Pid == pid {
			md := e.Metadata
			return &md
		}
	}
	return nil
}

// ParentOf returns the parent pid of a process.
func (q *TableQuery) ParentOf(pid int) (int, bool) {
	md := q.InfoFor(pid)
	if md == nil {
		return 0, false
	}
	return md.ParentPid, true
}

// ChildrenOf returns the direct children of a pid.
func (q *TableQuery) ChildrenOf(pid int) []Metadata {
	var children []Metadata
	for _, e := range q.snapshot() {
		if e.ParentPid == pid {
			children = append(children, e.Metadata)
		}
	}
	return children
}

// SupervisorFor finds the launchd_sim instance owning a device. Each
// booted device runs exactly one, and its command line references the
// device's data directory, which contains the UDID.
func (q *TableQuery) SupervisorFor(udid string) *Metadata {
	return q.findByCommand(supervisorName, udid)
}

// ApplicationFor finds the Simulator.app process driving a device.
// The container application is started with -CurrentDeviceUDID, so the
// UDID appears in its argument list.
func (q *TableQuery) ApplicationFor(udid string) *Metadata {
	return q.findByCommand(applicationName, udid)
}

func (q *TableQuery) findByCommand(name, udid string) *Metadata {
	for _, e := range q.snapshot() {
		if e.Name == name && strings.Contains(e.command, udid) {
			md := e.Metadata
			return &md
		}
	}
	return nil
}
