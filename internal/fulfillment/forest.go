package fulfillment

import (
	"context"
	"math/rand/v2"
)

// Forest is a bagged ensemble of regression trees
type Forest struct {
	Trees []Tree `json:"trees"`
}

// fitForest trains nTrees trees on bootstrap resamples drawn from a PCG
// source seeded with seed, so identical inputs always yield the same forest.
func fitForest(ctx context.Context, x [][]float64, y []float64, nTrees int, seed uint64) (*Forest, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	n := len(y)
	forest := &Forest{Trees: make([]Tree, 0, nTrees)}

	for t := 0; t < nTrees; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows := make([]int, n)
		for i := range rows {
			rows[i] = rng.IntN(n)
		}
		forest.Trees = append(forest.Trees, fitTree(x, y, rows))
	}
	return forest, nil
}

// Predict averages the trees' predictions
func (f *Forest) Predict(x []float64) float64 {
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].Predict(x)
	}
	return sum / float64(len(f.Trees))
}
