package simulator

import (
	"context"
	"sync"
	"time"

	"github.com/chrisdamba/orderpulse/internal/logger"
	"go.uber.org/zap"
)

// Simulator drives one dashboard session: it loads the store, runs the daily
// generation check and keeps the movement loops going until the context ends.
type Simulator struct {
	Generator *Generator
	Movement  *Movement

	dailyCheckInterval time.Duration
	log                *zap.Logger
}

func NewSimulator(gen *Generator, mov *Movement, dailyCheckInterval time.Duration, log *zap.Logger) *Simulator {
	return &Simulator{
		Generator:          gen,
		Movement:           mov,
		dailyCheckInterval: dailyCheckInterval,
		log:                logger.OrGlobal(log),
	}
}

// Run blocks until ctx is done. Outstanding repository writes are flushed
// before it returns.
func (s *Simulator) Run(ctx context.Context) error {
	s.log.Info("session starting", zap.Time("at", time.Now().UTC()))

	if err := s.Generator.store.Refresh(ctx); err != nil {
		s.log.Warn("starting with an empty order store", zap.Error(err))
	}
	if _, _, err := s.Generator.GenerateDailyOrders(ctx); err != nil && ctx.Err() == nil {
		s.log.Warn("daily generation failed", zap.Error(err))
	}

	s.Movement.Start()
	s.Movement.StartDeliveries()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Generator.RunDaily(ctx, s.dailyCheckInterval)
	}()

	<-ctx.Done()
	s.Movement.Stop()
	wg.Wait()
	s.Generator.store.Flush()

	s.log.Info("session stopped", zap.Time("at", time.Now().UTC()))
	return nil
}
