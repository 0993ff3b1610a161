// Package optim searches scene parameters for the run that minimizes a
// metric.
package optim

import (
	"context"
	"fmt"
	"maps"
	"math"

	"github.com/san-kum/vessim/internal/config"
	"github.com/san-kum/vessim/internal/experiment"
)

// GridSearch tries every combination of parameter values. Parameters are
// variable targets of the form "<object reference>/<variable>".
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Size is the number of runs a full search performs.
func (g *GridSearch) Size() int {
	if len(g.ranges) == 0 {
		return 0
	}
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs base once per grid point and returns the point with the lowest
// value of metricName. Runs that fail or lack the metric are skipped; an
// error is returned only when no run succeeded or ctx was cancelled.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("%d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}
	if g.Size() == 0 {
		return nil, 0, fmt.Errorf("empty search grid")
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var lastErr error

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		exp := experiment.New(base, experiment.WithOverrides(params))
		return exp, exp.Setup()
	}
	g.searchRecursive(ctx, 0, make(map[string]float64), build, metricName, &best, &bestParams, &lastErr)

	if err := ctx.Err(); err != nil {
		return bestParams, best, err
	}
	if bestParams == nil {
		if lastErr == nil {
			lastErr = fmt.Errorf("metric %q not reported", metricName)
		}
		return nil, 0, fmt.Errorf("no successful run: %w", lastErr)
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	best *float64,
	bestParams *map[string]float64,
	lastErr *error,
) {
	if ctx.Err() != nil {
		return
	}
	if depth == len(g.paramNames) {
		exp, err := buildExperiment(current)
		if err != nil {
			*lastErr = err
			return
		}
		defer exp.Close()

		result, err := exp.Run(ctx)
		if err != nil {
			*lastErr = err
			return
		}

		val, ok := result.Metrics[metricName]
		if ok && val < *best {
			*best = val
			*bestParams = maps.Clone(current)
		}
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := maps.Clone(current)
		newParams[paramName] = val

		g.searchRecursive(ctx, depth+1, newParams, buildExperiment, metricName, best, bestParams, lastErr)
	}
}
