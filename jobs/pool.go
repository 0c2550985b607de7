package jobs

import (
	"context"
	"sync"
	"time"
)

// WorkerPool runs a fixed number of workers inside one process and keeps
// them running: Upkeep replaces any worker whose goroutine has exited, so a
// panic or a poisoned worker never silently shrinks capacity.
type WorkerPool struct {
	d    *Dispatcher
	size int

	mu      sync.Mutex
	slots   []*workerSlot
	started bool

	// runWorker is swapped out in tests to observe slot lifecycle without
	// a database.
	runWorker func(ctx context.Context)
}

type workerSlot struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *workerSlot) alive() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// NewWorkerPool creates a pool of size workers. The workers are not started
// until Start is called.
func (d *Dispatcher) NewWorkerPool(size int) *WorkerPool {
	p := &WorkerPool{
		d:     d,
		size:  size,
		slots: make([]*workerSlot, size),
	}
	p.runWorker = func(ctx context.Context) {
		d.NewWorker().Run(ctx)
	}
	return p
}

// Start launches the pool's workers. Each worker runs until ctx is
// cancelled or its goroutine exits on its own.
func (p *WorkerPool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.slots {
		p.slots[i] = p.spawn(ctx)
	}
	p.started = true
	p.d.Logger.Info().LogActivity("Worker pool started", map[string]any{
		"workers": p.size,
	})
}

func (p *WorkerPool) spawn(ctx context.Context) *workerSlot {
	workerCtx, cancel := context.WithCancel(ctx)
	slot := &workerSlot{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(slot.done)
		p.runWorker(workerCtx)
	}()
	return slot
}

// Upkeep replaces dead workers and returns the number replaced. It is a
// no-op while every worker is alive.
func (p *WorkerPool) Upkeep(ctx context.Context) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	replaced := 0
	for i, slot := range p.slots {
		if slot.alive() {
			continue
		}
		p.slots[i] = p.spawn(ctx)
		replaced++
	}
	if replaced > 0 {
		p.d.Logger.Warn().LogActivity("Worker pool replaced dead workers", map[string]any{
			"replaced": replaced,
		})
		p.d.recordMetric(MetricWorkersReplaced, float64(replaced))
	}
	return replaced
}

// RunUpkeep blocks, running Upkeep rate times per second until ctx is
// cancelled. Typical deployments run it on the main goroutine after Start.
func (p *WorkerPool) RunUpkeep(ctx context.Context, rate float64) {
	if rate <= 0 {
		rate = 1
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Upkeep(ctx)
		}
	}
}

// Alive reports how many workers are currently running.
func (p *WorkerPool) Alive() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, slot := range p.slots {
		if slot != nil && slot.alive() {
			n++
		}
	}
	return n
}

// Stop cancels every worker and waits for all of them to exit.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	slots := make([]*workerSlot, len(p.slots))
	copy(slots, p.slots)
	p.started = false
	p.mu.Unlock()

	for _, slot := range slots {
		if slot != nil {
			slot.cancel()
		}
	}
	for _, slot := range slots {
		if slot != nil {
			<-slot.done
		}
	}
	p.d.Logger.Info().LogActivity("Worker pool stopped", nil)
}
