package fulfillment

import (
	"math"
	"sort"
)

// maxDepth bounds recursion; trees normally reach purity well before it
const maxDepth = 64

const leaf = -1

type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v"`
}

// Tree is a regression tree stored as a flat node slice rooted at index 0
type Tree struct {
	Nodes []node `json:"nodes"`
}

// Predict walks the tree for the encoded vector x
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature == leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// valid reports whether the node at idx can be walked safely. Nodes are
// stored in pre-order, so both children of a split come after it.
func (n node) valid(idx, size, width int) bool {
	if n.Feature == leaf {
		return true
	}
	if n.Feature < 0 || n.Feature >= width {
		return false
	}
	return n.Left > idx && n.Left < size && n.Right > idx && n.Right < size
}

type treeBuilder struct {
	x     [][]float64
	y     []float64
	nodes []node
}

// fitTree grows a tree over the sample rows (which may repeat) until every
// leaf is pure or no feature separates its rows.
func fitTree(x [][]float64, y []float64, rows []int) Tree {
	b := &treeBuilder{x: x, y: y}
	b.grow(rows, 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(rows []int, depth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, node{Feature: leaf, Value: b.mean(rows)})

	if depth >= maxDepth || b.pure(rows) {
		return idx
	}
	feature, threshold, ok := b.bestSplit(rows)
	if !ok {
		return idx
	}

	var left, right []int
	for _, r := range rows {
		if b.x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx] = node{Feature: feature, Threshold: threshold, Left: l, Right: r, Value: b.nodes[idx].Value}
	return idx
}

func (b *treeBuilder) mean(rows []int) float64 {
	var sum float64
	for _, r := range rows {
		sum += b.y[r]
	}
	return sum / float64(len(rows))
}

func (b *treeBuilder) pure(rows []int) bool {
	for _, r := range rows[1:] {
		if b.y[r] != b.y[rows[0]] {
			return false
		}
	}
	return true
}

// bestSplit finds the split minimising the summed squared error of both
// children, even when that does not improve on the parent. Candidate thresholds are midpoints between distinct adjacent
// values; the first best split found wins ties.
func (b *treeBuilder) bestSplit(rows []int) (int, float64, bool) {
	n := len(rows)
	var total, totalSq float64
	for _, r := range rows {
		total += b.y[r]
		totalSq += b.y[r] * b.y[r]
	}
	bestScore := math.Inf(1)
	bestFeature, bestThreshold, found := 0, 0.0, false

	order := make([]int, n)
	for f := range b.x[rows[0]] {
		copy(order, rows)
		sort.SliceStable(order, func(i, j int) bool {
			return b.x[order[i]][f] < b.x[order[j]][f]
		})

		var leftSum, leftSq float64
		for i := 0; i < n-1; i++ {
			v := b.y[order[i]]
			leftSum += v
			leftSq += v * v

			cur, next := b.x[order[i]][f], b.x[order[i+1]][f]
			if cur == next {
				continue
			}
			nl, nr := float64(i+1), float64(n-i-1)
			rightSum, rightSq := total-leftSum, totalSq-leftSq
			score := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if score < bestScore-1e-12 {
				bestScore = score
				bestFeature = f
				bestThreshold = (cur + next) / 2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}
