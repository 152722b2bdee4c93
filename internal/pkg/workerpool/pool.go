package workerpool

import (
	"context"
	"sync"
	"time"
)

type Task func(ctx context.Context) error

type Result struct {
	Index int
	Err   error
}

type Pool struct {
	workers int
	tasks   chan indexedTask
	next    int
	wg      sync.WaitGroup
	mu      sync.RWMutex
	rate    <-chan time.Time
	ticker  *time.Ticker
}

type indexedTask struct {
	index int
	run   Task
}

func New(workers, buffer int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Pool{
		workers: workers,
		tasks:   make(chan indexedTask, buffer),
	}
}

// SetRateLimit caps task starts per second across all workers. rps <= 0
// removes the cap. It must be called before Run.
func (p *Pool) SetRateLimit(rps int) {
	if p == nil {
		return
	}
	p.stopTicker()
	if rps <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ticker = time.NewTicker(time.Second / time.Duration(rps))
	p.rate = p.ticker.C
}

// Submit queues t and returns its submission index. Submit is not safe for
// concurrent use.
func (p *Pool) Submit(t Task) int {
	if p == nil || t == nil {
		return -1
	}
	idx := p.next
	p.next++
	p.tasks <- indexedTask{index: idx, run: t}
	return idx
}

// Close stops accepting tasks. Queued tasks still run.
func (p *Pool) Close() {
	if p == nil {
		return
	}
	close(p.tasks)
}

func (p *Pool) stopTicker() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
		p.rate = nil
	}
}

func (p *Pool) Run(ctx context.Context) <-chan Result {
	if p == nil {
		out := make(chan Result)
		close(out)
		return out
	}
	out := make(chan Result, p.workers*64)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-p.tasks:
					if !ok {
						return
					}
					p.mu.RLock()
					rate := p.rate
					p.mu.RUnlock()
					if rate != nil {
						select {
						case <-ctx.Done():
							return
						case <-rate:
						}
					}
					err := t.run(ctx)
					select {
					case <-ctx.Done():
						return
					case out <- Result{Index: t.index, Err: err}:
					}
				}
			}
		}()
	}

	go func() {
		p.wg.Wait()
		p.stopTicker()
		close(out)
	}()

	return out
}

// Each runs fn for every index in [0, n) on a pool of the given size and
// blocks until all calls return. The returned slice holds the error of each call.
func Each(ctx context.Context, workers, n int, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	if n == 0 {
		return errs
	}
	if workers > n {
		workers = n
	}
	p := New(workers, n)
	results := p.Run(ctx)
	for i := 0; i < n; i++ {
		i := i
		p.Submit(func(ctx context.Context) error { return fn(ctx, i) })
	}
	p.Close()

	done := make([]bool, n)
	for res := range results {
		errs[res.Index] = res.Err
		done[res.Index] = true
	}
	for i := range done {
		if !done[i] && ctx.Err() != nil {
			errs[i] = ctx.Err()
		}
	}
	return errs
}
