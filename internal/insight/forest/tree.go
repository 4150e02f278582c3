package forest

import (
	"math"
	"math/rand/v2"
	"sort"
)

// Node is one decision node. A node with nil children is a leaf whose
// Prob is the weighted share of positive samples that reached it.
type Node struct {
	Feature   int     `json:"f,omitempty"`
	Threshold float64 `json:"t,omitempty"`
	Left      *Node   `json:"l,omitempty"`
	Right     *Node   `json:"r,omitempty"`
	Prob      float64 `json:"p"`
}

// Leaf reports whether n has no children.
func (n *Node) Leaf() bool { return n.Left == nil }

// Predict walks x down the tree and returns the leaf probability.
func (n *Node) Predict(x []float64) float64 {
	for !n.Leaf() {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Prob
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (n *Node) Depth() int {
	if n.Leaf() {
		return 0
	}
	return 1 + max(n.Left.Depth(), n.Right.Depth())
}

// grower builds one CART tree with weighted Gini impurity.
type grower struct {
	x           [][]float64
	y           []int
	classWeight [2]float64
	maxDepth    int
	minLeaf     int
	maxFeatures int
	rng         *rand.Rand
}

func (g *grower) grow(idx []int, depth int) *Node {
	w0, w1 := g.weights(idx)
	node := &Node{Prob: prob(w0, w1)}

	if w0 == 0 || w1 == 0 {
		return node
	}
	if g.maxDepth > 0 && depth >= g.maxDepth {
		return node
	}
	if len(idx) < 2*g.minLeaf {
		return node
	}

	feature, threshold, ok := g.bestSplit(idx, gini(w0, w1)*(w0+w1))
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if g.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	node.Feature = feature
	node.Threshold = threshold
	node.Left = g.grow(left, depth+1)
	node.Right = g.grow(right, depth+1)
	return node
}

// bestSplit searches a random subset of features for the threshold with
// the lowest weighted child impurity. Thresholds sit halfway between
// adjacent distinct values and leave at least minLeaf samples per side.
func (g *grower) bestSplit(idx []int, parentImpurity float64) (feature int, threshold float64, ok bool) {
	nFeatures := len(g.x[idx[0]])
	candidates := g.rng.Perm(nFeatures)[:g.maxFeatures]

	best := parentImpurity - 1e-12
	sorted := make([]int, len(idx))
	for _, f := range candidates {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool { return g.x[sorted[a]][f] < g.x[sorted[b]][f] })

		total0, total1 := g.weights(sorted)
		var l0, l1 float64
		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			if g.y[i] == 1 {
				l1 += g.classWeight[1]
			} else {
				l0 += g.classWeight[0]
			}
			nLeft := k + 1
			if nLeft < g.minLeaf || len(sorted)-nLeft < g.minLeaf {
				continue
			}
			lo, hi := g.x[i][f], g.x[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			r0, r1 := total0-l0, total1-l1
			impurity := gini(l0, l1)*(l0+l1) + gini(r0, r1)*(r0+r1)
			if impurity < best {
				best = impurity
				feature = f
				threshold = lo + (hi-lo)/2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func (g *grower) weights(idx []int) (w0, w1 float64) {
	for _, i := range idx {
		if g.y[i] == 1 {
			w1 += g.classWeight[1]
		} else {
			w0 += g.classWeight[0]
		}
	}
	return w0, w1
}

func gini(w0, w1 float64) float64 {
	total := w0 + w1
	if total == 0 {
		return 0
	}
	p0, p1 := w0/total, w1/total
	return 1 - p0*p0 - p1*p1
}

func prob(w0, w1 float64) float64 {
	if w0+w1 == 0 {
		return 0
	}
	return w1 / (w0 + w1)
}

// sqrtFeatures is the per-split feature budget: floor(sqrt(n)), at least 1.
func sqrtFeatures(n int) int {
	return max(1, int(math.Sqrt(float64(n))))
}
