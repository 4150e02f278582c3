package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Grid returns every combination of the given values, trees varying
// slowest. Balanced and Seed are copied from base.
func Grid(base Params, trees, depths, leaves []int) []Params {
	out := make([]Params, 0, len(trees)*len(depths)*len(leaves))
	for _, t := range trees {
		for _, d := range depths {
			for _, l := range leaves {
				p := base
				p.Trees, p.MaxDepth, p.MinLeaf = t, d, l
				out = append(out, p)
			}
		}
	}
	return out
}

// DefaultGrid is 50/100/200 trees, depth 5/10/unlimited, leaf 2/4.
func DefaultGrid(base Params) []Params {
	return Grid(base, []int{50, 100, 200}, []int{5, 10, 0}, []int{2, 4})
}

// StratifiedSplit shuffles each class separately and moves round(testSize
// * class size) of it, at least one, into the test set. Every class must
// have two members or more.
func StratifiedSplit(y []int, testSize float64, seed uint64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size %.2f outside (0, 1)", testSize)
	}
	rng := rand.New(rand.NewPCG(seed, 0))
	for _, members := range byClass(y) {
		if len(members) == 0 {
			continue
		}
		if len(members) < 2 {
			return nil, nil, fmt.Errorf("a class has %d member, need at least 2 to split", len(members))
		}
		rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		n := int(math.Round(testSize * float64(len(members))))
		n = min(max(n, 1), len(members)-1)
		test = append(test, members[:n]...)
		train = append(train, members[n:]...)
	}
	return train, test, nil
}

// StratifiedKFold deals each class's shuffled members round-robin into k
// folds and returns the positions (indexes into y) of each fold.
func StratifiedKFold(y []int, k int, seed uint64) [][]int {
	folds := make([][]int, k)
	rng := rand.New(rand.NewPCG(seed, 1))
	next := 0
	for _, members := range byClass(y) {
		rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		for _, m := range members {
			folds[next%k] = append(folds[next%k], m)
			next++
		}
	}
	return folds
}

// CrossValidate is the mean held-out accuracy of p over k stratified folds.
func CrossValidate(ctx context.Context, x [][]float64, y []int, p Params, k int) (float64, error) {
	folds := StratifiedKFold(y, k, p.Seed)
	var total float64
	var used int
	for i, fold := range folds {
		if len(fold) == 0 {
			continue
		}
		var trainX [][]float64
		var trainY []int
		for j, other := range folds {
			if j == i {
				continue
			}
			for _, r := range other {
				trainX = append(trainX, x[r])
				trainY = append(trainY, y[r])
			}
		}
		testX, testY := Subset(x, y, fold)
		f, err := Train(ctx, trainX, trainY, p)
		switch {
		case errors.Is(err, ErrSingleClass):
			// The fold held every sample of one class; the model can only
			// ever answer with the remaining one.
			pred := make([]int, len(testY))
			for j := range pred {
				pred[j] = trainY[0]
			}
			total += Accuracy(testY, pred)
		case err != nil:
			return 0, fmt.Errorf("fold %d: %w", i, err)
		default:
			total += Accuracy(testY, f.PredictAll(testX))
		}
		used++
	}
	if used == 0 {
		return 0, fmt.Errorf("cross validation: no non-empty folds")
	}
	return total / float64(used), nil
}

// SearchResult is the winner of a grid search.
type SearchResult struct {
	Params Params
	Score  float64
}

// GridSearch cross-validates every candidate concurrently and returns the
// best mean accuracy. Ties go to the earlier candidate.
func GridSearch(ctx context.Context, x [][]float64, y []int, grid []Params, k int) (SearchResult, error) {
	if len(grid) == 0 {
		return SearchResult{}, fmt.Errorf("grid search: empty grid")
	}
	scores := make([]float64, len(grid))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, runtime.GOMAXPROCS(0)/2))
	for i, p := range grid {
		g.Go(func() error {
			s, err := CrossValidate(ctx, x, y, p, k)
			if err != nil {
				return err
			}
			scores[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SearchResult{}, err
	}

	best := 0
	for i := range scores {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return SearchResult{Params: grid[best], Score: scores[best]}, nil
}

// Subset picks rows and labels at the given positions.
func Subset(x [][]float64, y []int, idx []int) ([][]float64, []int) {
	sx := make([][]float64, len(idx))
	sy := make([]int, len(idx))
	for i, r := range idx {
		sx[i] = x[r]
		sy[i] = y[r]
	}
	return sx, sy
}

// Accuracy is the share of matching labels.
func Accuracy(truth, pred []int) float64 {
	if len(truth) == 0 {
		return 0
	}
	var hit int
	for i := range truth {
		if truth[i] == pred[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(truth))
}

// Confusion counts [actual][predicted] for binary labels.
func Confusion(truth, pred []int) [2][2]int {
	var m [2][2]int
	for i := range truth {
		m[truth[i]][pred[i]]++
	}
	return m
}

func byClass(y []int) [2][]int {
	var out [2][]int
	for i, label := range y {
		out[label] = append(out[label], i)
	}
	return out
}
