package worker

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type task struct {
	run  func()
	drop func()
}

// Pool runs submitted tasks FIFO with at most Max of them in flight.
type Pool struct {
	mu     sync.Mutex
	queue  []task
	max    int
	active int
	busy   bool
	idle   chan struct{} // closed whenever nothing is queued or running
	log    *zap.Logger
}

func NewPool(max int, log *zap.Logger) *Pool {
	if max < 1 {
		max = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	idle := make(chan struct{})
	close(idle)
	return &Pool{max: max, idle: idle, log: log}
}

// Submit enqueues run. drop, when non-nil, is called instead of run if the
// task is discarded by CancelPending before it starts.
func (p *Pool) Submit(run, drop func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.busy {
		p.busy = true
		p.idle = make(chan struct{})
	}
	p.queue = append(p.queue, task{run: run, drop: drop})
	p.dispatchLocked()
}

func (p *Pool) dispatchLocked() {
	for p.active < p.max && len(p.queue) > 0 {
		t := p.queue[0]
		p.queue[0] = task{}
		p.queue = p.queue[1:]
		p.active++
		go p.execute(t)
	}
}

func (p *Pool) settleLocked() {
	if p.busy && p.active == 0 && len(p.queue) == 0 {
		p.busy = false
		close(p.idle)
	}
}

func (p *Pool) execute(t task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn("pool.panic", zap.Any("r", r))
		}
		p.mu.Lock()
		p.active--
		p.dispatchLocked()
		p.settleLocked()
		p.mu.Unlock()
	}()
	t.run()
}

func (p *Pool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Pool) Max() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.max
}

// SetMax changes the concurrency limit. Lowering it never interrupts tasks
// that are already running.
func (p *Pool) SetMax(n int) {
	if n < 1 {
		n = 1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.max = n
	p.dispatchLocked()
}

func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Drain waits until no task is queued or running. It reports false when
// timeout elapses first.
func (p *Pool) Drain(timeout time.Duration) bool {
	p.mu.Lock()
	idle := p.idle
	p.mu.Unlock()

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-idle:
		return true
	case <-t.C:
		return false
	}
}

// CancelPending discards queued tasks and returns how many were dropped.
// Running tasks are left alone.
func (p *Pool) CancelPending() int {
	p.mu.Lock()
	dropped := p.queue
	p.queue = nil
	p.settleLocked()
	p.mu.Unlock()

	for _, t := range dropped {
		if t.drop != nil {
			t.drop()
		}
	}
	return len(dropped)
}
