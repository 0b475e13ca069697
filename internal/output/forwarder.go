package output

import (
	"context"
	"sync"
	"time"

	"github.com/chrisdamba/orderpulse/internal/logger"
	"github.com/chrisdamba/orderpulse/internal/metrics"
	"github.com/chrisdamba/orderpulse/internal/store"
	"go.uber.org/zap"
)

const maxBatchSize = 100

// BatchWriter is implemented by destinations that can take several messages
// in one call.
type BatchWriter interface {
	WriteBatch(ctx context.Context, messages []EventMessage) (int64, error)
}

// Forwarder publishes store changes to an OutputDestination from its own
// goroutine. Handle never blocks; when the queue is full the event is
// dropped.
type Forwarder struct {
	out OutputDestination
	log *zap.Logger
	now func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan EventMessage
	done   chan struct{}

	unsubscribe func()
	closeOnce   sync.Once
	closeErr    error
}

func NewForwarder(out OutputDestination, bufferSize int, log *zap.Logger) *Forwarder {
	if bufferSize < 1 {
		bufferSize = 1
	}
	f := &Forwarder{
		out:   out,
		log:   logger.OrGlobal(log),
		now:   time.Now,
		queue: make(chan EventMessage, bufferSize),
		done:  make(chan struct{}),
	}
	go f.run()
	return f
}

// Attach subscribes the forwarder to st. Close unsubscribes it.
func (f *Forwarder) Attach(st *store.Store) {
	f.unsubscribe = st.Subscribe(f.Handle)
}

func (f *Forwarder) Handle(c store.Change) {
	msg, ok, err := SerializeChange(c, f.now())
	if err != nil {
		f.log.Error("failed to serialize change", zap.Error(err))
		return
	}
	if !ok {
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}
	select {
	case f.queue <- msg:
	default:
		metrics.EventsDropped.Inc()
		f.log.Warn("event queue full, dropping event", zap.String("topic", msg.Topic))
	}
}

func (f *Forwarder) run() {
	defer close(f.done)
	for msg := range f.queue {
		batch := []EventMessage{msg}
	drain:
		for len(batch) < maxBatchSize {
			select {
			case next, ok := <-f.queue:
				if !ok {
					break drain
				}
				batch = append(batch, next)
			default:
				break drain
			}
		}
		f.write(batch)
	}
}

func (f *Forwarder) write(batch []EventMessage) {
	if bw, ok := f.out.(BatchWriter); ok && len(batch) > 1 {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := bw.WriteBatch(ctx, batch); err != nil {
			f.log.Warn("failed to write event batch", zap.Int("events", len(batch)), zap.Error(err))
		}
		return
	}
	for _, m := range batch {
		if err := f.out.WriteMessage(m.Topic, m.Message); err != nil {
			f.log.Warn("failed to write event", zap.String("topic", m.Topic), zap.Error(err))
		}
	}
}

// Close stops accepting events, writes what is queued and closes the
// destination.
func (f *Forwarder) Close() error {
	f.closeOnce.Do(func() {
		if f.unsubscribe != nil {
			f.unsubscribe()
		}
		f.mu.Lock()
		f.closed = true
		close(f.queue)
		f.mu.Unlock()

		<-f.done
		f.closeErr = f.out.Close()
	})
	return f.closeErr
}
