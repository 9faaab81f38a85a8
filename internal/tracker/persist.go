package tracker

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/theirongolddev/subtrack/internal/store"
)

type writeReq struct {
	key   string
	value string
	ack   chan struct{} // non-nil marks a flush barrier
}

// persister is the single writer goroutine behind a Store. Writes are
// applied in enqueue order, so the sink always holds the newest fully
// written value.
type persister struct {
	kv  store.KV
	log *zap.SugaredLogger

	reqs chan writeReq
	done chan struct{}

	mu     sync.RWMutex // guards closed and sends on reqs
	closed bool

	errMu   sync.Mutex
	lastErr error
}

func newPersister(kv store.KV, log *zap.SugaredLogger, buffer int) *persister {
	p := &persister{
		kv:   kv,
		log:  log,
		reqs: make(chan writeReq, buffer),
		done: make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *persister) run() {
	defer close(p.done)
	for req := range p.reqs {
		if req.ack != nil {
			close(req.ack)
			continue
		}
		p.write(req.key, req.value)
	}
}

func (p *persister) write(key, value string) {
	err := p.kv.Set(key, value)
	p.errMu.Lock()
	defer p.errMu.Unlock()
	if err != nil {
		p.lastErr = fmt.Errorf("%w: writing %s: %v", ErrPersistence, key, err)
		p.log.Warnw("persisting state failed, keeping in-memory copy", "key", key, "error", err)
		return
	}
	p.lastErr = nil
}

// enqueue schedules a write. After close it writes synchronously.
func (p *persister) enqueue(key, value string) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		p.write(key, value)
		return
	}
	p.reqs <- writeReq{key: key, value: value}
	p.mu.RUnlock()
}

// flush blocks until every write enqueued before the call has been applied.
func (p *persister) flush() {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return
	}
	ack := make(chan struct{})
	p.reqs <- writeReq{ack: ack}
	p.mu.RUnlock()
	<-ack
}

func (p *persister) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.reqs)
	p.mu.Unlock()
	<-p.done
}

func (p *persister) err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.lastErr
}
