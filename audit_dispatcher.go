package authcore

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher decouples audit emission from the sink. Entries flow
// through a buffered channel to a single worker goroutine; Close drains
// whatever is still queued before returning.
type auditDispatcher struct {
	cfg       AuditConfig
	sink      AuditSink
	logf      func(format string, args ...any)
	ch        chan AuditEntry
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink, logf func(string, ...any)) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		cfg:  cfg,
		sink: sink,
		logf: logf,
		ch:   make(chan AuditEntry, cfg.BufferSize),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *auditDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case entry := <-d.ch:
			d.append(entry)
		case <-d.done:
			for {
				select {
				case entry := <-d.ch:
					d.append(entry)
				default:
					return
				}
			}
		}
	}
}

// append is best-effort: a sink failure is logged and swallowed so that
// auditing never fails the primary operation.
func (d *auditDispatcher) append(entry AuditEntry) {
	if _, err := d.sink.Append(context.Background(), entry); err != nil && d.logf != nil {
		d.logf("authcore: audit append failed for event %s: %v", entry.Event, err)
	}
}

func (d *auditDispatcher) Emit(ctx context.Context, entry AuditEntry) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- entry:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- entry:
	case <-ctx.Done():
	case <-d.done:
	}
}

func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
