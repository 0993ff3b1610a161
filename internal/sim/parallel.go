package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent simulations concurrently, one per config. Build
// is called once per member and must return a Simulator over a fresh System;
// the System is closed when the member finishes.
type Ensemble struct {
	build   func(i int) (*Simulator, error)
	configs []Config
}

func NewEnsemble(build func(i int) (*Simulator, error), configs ...Config) *Ensemble {
	return &Ensemble{build: build, configs: configs}
}

func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(e.configs))
	g, ctx := errgroup.WithContext(ctx)
	for i, cfg := range e.configs {
		g.Go(func() error {
			s, err := e.build(i)
			if err != nil {
				return err
			}
			defer s.System().Close()
			results[i], err = s.Run(ctx, cfg)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
