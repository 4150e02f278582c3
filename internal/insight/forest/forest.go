// Package forest is a small random forest classifier for binary labels:
// bootstrapped CART trees with Gini splits, a square-root feature budget
// per split and optional class-balanced weights.
package forest

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ErrSingleClass is returned when the training labels hold one class only.
var ErrSingleClass = errors.New("training data contains a single class")

// Params configures training. MaxDepth 0 grows trees until leaves are
// pure or too small to split.
type Params struct {
	Trees    int    `json:"n_estimators"`
	MaxDepth int    `json:"max_depth"`
	MinLeaf  int    `json:"min_samples_leaf"`
	Balanced bool   `json:"balanced"`
	Seed     uint64 `json:"seed"`
}

func (p Params) withDefaults() Params {
	if p.Trees <= 0 {
		p.Trees = 100
	}
	if p.MinLeaf <= 0 {
		p.MinLeaf = 1
	}
	return p
}

// Forest is a trained ensemble. It marshals to JSON for snapshots.
type Forest struct {
	Params   Params  `json:"params"`
	Features int     `json:"features"`
	Trees    []*Node `json:"trees"`
}

// Train fits a forest on rows x with labels y in {0, 1}. Trees are grown
// concurrently; each draws from its own generator derived from the seed,
// so results do not depend on scheduling.
func Train(ctx context.Context, x [][]float64, y []int, p Params) (*Forest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("train forest: %d rows, %d labels", len(x), len(y))
	}
	var counts [2]int
	for _, label := range y {
		if label != 0 && label != 1 {
			return nil, fmt.Errorf("train forest: label %d is not binary", label)
		}
		counts[label]++
	}
	if counts[0] == 0 || counts[1] == 0 {
		return nil, ErrSingleClass
	}

	p = p.withDefaults()
	nFeatures := len(x[0])
	classWeight := [2]float64{1, 1}
	if p.Balanced {
		n := float64(len(y))
		classWeight[0] = n / (2 * float64(counts[0]))
		classWeight[1] = n / (2 * float64(counts[1]))
	}

	f := &Forest{Params: p, Features: nFeatures, Trees: make([]*Node, p.Trees)}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for t := range f.Trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(p.Seed, uint64(t)))
			gr := &grower{
				x:           x,
				y:           y,
				classWeight: classWeight,
				maxDepth:    p.MaxDepth,
				minLeaf:     p.MinLeaf,
				maxFeatures: sqrtFeatures(nFeatures),
				rng:         rng,
			}
			sample := make([]int, len(x))
			for i := range sample {
				sample[i] = rng.IntN(len(x))
			}
			f.Trees[t] = gr.grow(sample, 0)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return f, nil
}

// Proba is the mean positive-class probability across trees.
func (f *Forest) Proba(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.Trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.Trees))
}

// Predict returns 1 when Proba exceeds one half.
func (f *Forest) Predict(x []float64) int {
	if f.Proba(x) > 0.5 {
		return 1
	}
	return 0
}

// PredictAll applies Predict to every row.
func (f *Forest) PredictAll(rows [][]float64) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = f.Predict(r)
	}
	return out
}
