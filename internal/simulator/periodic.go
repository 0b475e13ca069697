package simulator

import (
	"fmt"
	"sync"
	"time"

	"github.com/chrisdamba/orderpulse/internal/metrics"
	"go.uber.org/zap"
)

// periodic runs fn on a ticker until stopped. Starting a running loop or
// stopping a stopped one does nothing.
type periodic struct {
	name     string
	interval time.Duration
	fn       func()
	log      *zap.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func newPeriodic(name string, interval time.Duration, fn func(), log *zap.Logger) *periodic {
	return &periodic{name: name, interval: interval, fn: fn, log: log}
}

func (p *periodic) start() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return false
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.loop(p.stop, p.done)
	return true
}

// halt stops the loop and waits for an in-flight tick to return. It must not
// be called from inside fn.
func (p *periodic) halt() bool {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()

	if stop == nil {
		return false
	}
	close(stop)
	<-done
	return true
}

func (p *periodic) running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}

func (p *periodic) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick runs fn once. A panic is logged and the loop keeps going.
func (p *periodic) tick() {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("tick panicked",
				zap.String("loop", p.name),
				zap.Error(fmt.Errorf("%v", r)),
			)
		}
	}()
	metrics.SimulatorTicks.WithLabelValues(p.name).Inc()
	p.fn()
}
