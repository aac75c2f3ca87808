package simulator

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hnisiji/idb/internal/events"
	"github.com/hnisiji/idb/internal/launcher"
	"github.com/hnisiji/idb/internal/process"
	"github.com/hnisiji/idb/internal/session"
	"golang.org/x/sys/unix"
)

const testUDID = "F9266A2E-3B45-4C11-9E10-7A3F0E2B61D4"

// callLog is a shared, ordered record of sink and killer activity so
// tests can assert cross-collaborator ordering.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, s)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}

// orderedSink records events into a callLog and an events.Recorder.
type orderedSink struct {
	log      *callLog
	recorder events.Recorder
}

func (s *orderedSink) Publish(e events.Event) {
	s.log.add("event:" + e.Kind.String())
	s.recorder.Publish(e)
}

// fakeKiller records kills into the shared callLog.
type fakeKiller struct {
	log     *callLog
	killErr error
}

func (k *fakeKiller) Kill(md process.Metadata, sig unix.Signal) error {
	k.log.add(fmt.Sprintf("kill:%d:%v", md.Pid, sig))
	return k.killErr
}

func (k *fakeKiller) KillAll(mds []process.Metadata) error {
	for _, md := range mds {
		k.log.add(fmt.Sprintf("killall:%d", md.Pid))
	}
	return k.killErr
}

// fakeQuery is an in-memory process.Query.
type fakeQuery struct {
	mu          sync.Mutex
	infos       map[int]*process.Metadata
	parents     map[int]int
	children    map[int][]process.Metadata
	childrenFn  func(pid int) []process.Metadata
	supervisor  *process.Metadata
	application *process.Metadata
}

func newFakeQuery() *fakeQuery {
	return &fakeQuery{
		infos:    make(map[int]*process.Metadata),
		parents:  make(map[int]int),
		children: make(map[int][]process.Metadata),
	}
}

func (q *fakeQuery) InfoFor(pid int) *process.Metadata {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.infos[pid]
}

func (q *fakeQuery) ParentOf(pid int) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ppid, ok := q.parents[pid]
	return ppid, ok
}

func (q *fakeQuery) ChildrenOf(pid int) []process.Metadata {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.childrenFn != nil {
		return q.childrenFn(pid)
	}
	return q.children[pid]
}

func (q *fakeQuery) SupervisorFor(udid string) *process.Metadata {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.supervisor
}

func (q *fakeQuery) ApplicationFor(udid string) *process.Metadata {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.application
}

// fakeTask is a spawned-process handle whose exit the test controls.
type fakeTask struct {
	pid  int
	exit chan int
}

func newFakeTask(pid int) *fakeTask {
	return &fakeTask{pid: pid, exit: make(chan int, 1)}
}

func (t *fakeTask) Pid() int { return t.pid }

func (t *fakeTask) Wait() (int, error) { return <-t.exit, nil }

// fakeRuntime is an in-memory DeviceRuntime.
type fakeRuntime struct {
	mu          sync.Mutex
	states      []string // successive State results; last value repeats
	stateIdx    int
	bootErr     error
	bootOpts    []BootOptions
	shutdownErr error
	shutdowns   int
	table       []ServiceEntry
	tableFn     func() []ServiceEntry
	spawnTask   *fakeTask
	spawnErr    error
	spawned     []launcher.ProcessConfig
}

func (r *fakeRuntime) State(udid string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return StateShutdown, nil
	}
	state := r.states[r.stateIdx]
	if r.stateIdx < len(r.states)-1 {
		r.stateIdx++
	}
	return state, nil
}

func (r *fakeRuntime) Boot(udid string, opts BootOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bootOpts = append(r.bootOpts, opts)
	return r.bootErr
}

func (r *fakeRuntime) Shutdown(udid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shutdowns++
	return r.shutdownErr
}

func (r *fakeRuntime) Spawn(udid string, cfg launcher.ProcessConfig, stdout, stderr io.Writer) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spawned = append(r.spawned, cfg)
	if r.spawnErr != nil {
		return nil, r.spawnErr
	}
	return r.spawnTask, nil
}

func (r *fakeRuntime) ServiceTable(udid string) ([]ServiceEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tableFn != nil {
		return r.tableFn(), nil
	}
	return r.table, nil
}

func testTimeouts() Timeouts {
	return Timeouts{
		Fast:          200 * time.Millisecond,
		State:         200 * time.Millisecond,
		Slow:          300 * time.Millisecond,
		FastInterval:  10 * time.Millisecond,
		StateInterval: 10 * time.Millisecond,
		SlowInterval:  10 * time.Millisecond,
	}
}

type testFixture struct {
	controller *Controller
	sess       *session.Session
	query      *fakeQuery
	runtime    *fakeRuntime
	killer     *fakeKiller
	sink       *orderedSink
	log        *callLog
}

func newFixture(strategy string) *testFixture {
	log := &callLog{}
	sink := &orderedSink{log: log}
	query := newFakeQuery()
	runtime := &fakeRuntime{}
	killer := &fakeKiller{log: log}

	sess := &session.Session{
		ID:               "ab12cd34",
		UDID:             testUDID,
		State:            session.StateShutdown,
		BootStrategy:     strategy,
		RequiredServices: []string{"backboardd", "SpringBoard"},
		StartedAt:        time.Now(),
	}

	controller := NewController(sess, ControllerOptions{
		Query:    query,
		Sink:     sink,
		Runtime:  runtime,
		Killer:   killer,
		Timeouts: testTimeouts(),
	})

	return &testFixture{
		controller: controller,
		sess:       sess,
		query:      query,
		runtime:    runtime,
		killer:     killer,
		sink:       sink,
		log:        log,
	}
}

// bootedFixture returns a fixture whose session is already Booted with
// a known supervisor.
func bootedFixture() *testFixture {
	f := newFixture("direct")
	sup := &process.Metadata{Pid: 412, Name: "launchd_sim"}
	f.query.supervisor = sup
	f.sess.State = session.StateBooted
	f.controller.supervisor = sup
	return f
}
