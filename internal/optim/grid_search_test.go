package optim

import (
	"context"
	"testing"

	"github.com/san-kum/vessim/internal/config"
)

func TestGridSearchSize(t *testing.T) {
	g := NewGridSearch([]string{"a/x", "b/y"}, [][]float64{{1, 2, 3}, {4, 5}})
	if g.Size() != 6 {
		t.Errorf("size = %d, want 6", g.Size())
	}
	if NewGridSearch(nil, nil).Size() != 0 {
		t.Error("empty grid should have size 0")
	}
}

func TestGridSearchFindsLowestEnergy(t *testing.T) {
	base := config.GetPreset("leo")
	base.Duration = 60

	g := NewGridSearch([]string{"earth/mu"}, [][]float64{{3.8e14, 4.2e14, 4.0e14}})
	params, best, err := g.Search(context.Background(), base, "energy:main/sat")
	if err != nil {
		t.Fatal(err)
	}
	// a stronger pull binds the satellite more tightly
	if params["earth/mu"] != 4.2e14 {
		t.Errorf("best mu = %g, want 4.2e14", params["earth/mu"])
	}
	if best >= 0 {
		t.Errorf("best energy = %g, want negative", best)
	}
}

func TestGridSearchErrors(t *testing.T) {
	base := config.GetPreset("leo")
	base.Duration = 10
	ctx := context.Background()

	tests := []struct {
		name   string
		g      *GridSearch
		metric string
	}{
		{"mismatched", NewGridSearch([]string{"earth/mu"}, nil), "energy:main/sat"},
		{"empty range", NewGridSearch([]string{"earth/mu"}, [][]float64{{}}), "energy:main/sat"},
		{"bad target", NewGridSearch([]string{"mars/mu"}, [][]float64{{1}}), "energy:main/sat"},
		{"unknown metric", NewGridSearch([]string{"earth/mu"}, [][]float64{{4e14}}), "entropy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := tt.g.Search(ctx, base, tt.metric); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGridSearchCancelled(t *testing.T) {
	base := config.GetPreset("leo")
	base.Duration = 10
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGridSearch([]string{"earth/mu"}, [][]float64{{4e14}})
	if _, _, err := g.Search(ctx, base, "energy:main/sat"); err == nil {
		t.Error("expected context error")
	}
}
