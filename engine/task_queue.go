package engine

import "sync"

// taskQueue carries continuations from loader goroutines back to the render
// thread. It is the only engine structure guarded by a lock.
type taskQueue struct {
	mu    sync.Mutex
	tasks []func()
}

func (q *taskQueue) push(task func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
}

// drain returns the tasks queued so far and empties the queue. Tasks queued
// while the returned batch runs wait for the next drain.
func (q *taskQueue) drain() []func() {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()
	return tasks
}

func (q *taskQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// QueueTask schedules fn on the render thread. It is safe to call from any
// goroutine.
func (e *ThinEngine) QueueTask(fn func()) {
	if fn == nil {
		return
	}
	e.tasks.push(fn)
}

// RunPendingTasks runs every task queued before the call and returns how many
// ran.
func (e *ThinEngine) RunPendingTasks() int {
	tasks := e.tasks.drain()
	for _, task := range tasks {
		if e.IsDisposed() {
			break
		}
		task()
	}
	return len(tasks)
}

func (e *ThinEngine) PendingTasks() int {
	return e.tasks.len()
}
