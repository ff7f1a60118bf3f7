package bot

import (
	"context"
	"sync"
)

// dispatcher delivers messages to the handler in arrival order per session
// key. Each key with pending messages has exactly one worker goroutine;
// different keys are handled concurrently.
type dispatcher struct {
	mu     sync.Mutex
	queues map[string][]Incoming
	wg     sync.WaitGroup
	handle func(ctx context.Context, msg Incoming)
}

func newDispatcher(handle func(ctx context.Context, msg Incoming)) *dispatcher {
	return &dispatcher{
		queues: make(map[string][]Incoming),
		handle: handle,
	}
}

func (d *dispatcher) Dispatch(ctx context.Context, msg Incoming) {
	key := SessionKey(msg)

	d.mu.Lock()
	pending, running := d.queues[key]
	d.queues[key] = append(pending, msg)
	if !running {
		d.wg.Add(1)
	}
	d.mu.Unlock()

	if !running {
		go d.drain(ctx, key)
	}
}

func (d *dispatcher) drain(ctx context.Context, key string) {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		queue := d.queues[key]
		if len(queue) == 0 {
			delete(d.queues, key)
			d.mu.Unlock()
			return
		}
		msg := queue[0]
		d.queues[key] = queue[1:]
		d.mu.Unlock()

		d.handle(ctx, msg)
	}
}

// Wait blocks until every dispatched message has been handled.
func (d *dispatcher) Wait() {
	d.wg.Wait()
}
