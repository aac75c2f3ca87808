package future

import "sync"

// Queue is a serial work queue for future continuations. Tasks run one
// at a time, in submission order, on a dedicated goroutine.
type Queue struct {
	tasks chan func()
	stop  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

// NewQueue starts a serial queue with the given backlog capacity.
func NewQueue(backlog int) *Queue {
	q := &Queue{
		tasks: make(chan func(), backlog),
		stop:  make(chan struct{}),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case task := <-q.tasks:
			task()
		case <-q.stop:
			// Drain whatever was already queued before stopping.
			for {
				select {
				case task := <-q.tasks:
					task()
				default:
					return
				}
			}
		}
	}
}

// Schedule submits a task. Blocks if the backlog is full. Tasks
// submitted after Close may be dropped.
func (q *Queue) Schedule(task func()) {
	select {
	case q.tasks <- task:
	case <-q.stop:
	}
}

// Close stops the queue after draining queued tasks and waits for the
// worker to exit.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.stop) })
	q.wg.Wait()
}
