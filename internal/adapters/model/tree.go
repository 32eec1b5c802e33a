package model

import (
	"context"
	"fmt"

	"github.com/okian/outbreak/internal/domain/risk"
)

// Node is one split or leaf of a decision tree. Split nodes send samples with
// x[Feature] <= Threshold to Left and the rest to Right.
type Node struct {
	Feature   int     `yaml:"feature"`
	Threshold float64 `yaml:"threshold"`
	Left      int     `yaml:"left"`
	Right     int     `yaml:"right"`
	Leaf      bool    `yaml:"leaf"`
	Class     int     `yaml:"class"`
}

// TreeModel is a binary decision tree rooted at node 0.
type TreeModel struct {
	Nodes []Node `yaml:"nodes"`
}

// validate checks that every path from the root reaches a leaf without
// revisiting a node.
func (t *TreeModel) validate() error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("%w: no nodes", ErrInvalidTree)
	}
	const (
		unvisited = iota
		active
		done
	)
	state := make([]int, len(t.Nodes))

	var visit func(i int) error
	visit = func(i int) error {
		if i < 0 || i >= len(t.Nodes) {
			return fmt.Errorf("%w: child index %d out of range", ErrInvalidTree, i)
		}
		switch state[i] {
		case active:
			return fmt.Errorf("%w: cycle through node %d", ErrInvalidTree, i)
		case done:
			return nil
		}
		n := t.Nodes[i]
		if n.Leaf {
			if n.Class != 0 && n.Class != 1 {
				return fmt.Errorf("%w: leaf %d has class %d", ErrInvalidTree, i, n.Class)
			}
			state[i] = done
			return nil
		}
		if n.Feature < 0 || n.Feature >= risk.FeatureCount {
			return fmt.Errorf("%w: node %d splits on feature %d", ErrInvalidTree, i, n.Feature)
		}
		state[i] = active
		if err := visit(n.Left); err != nil {
			return err
		}
		if err := visit(n.Right); err != nil {
			return err
		}
		state[i] = done
		return nil
	}
	return visit(0)
}

// Predict implements risk.Predictor.
func (t *TreeModel) Predict(ctx context.Context, x [risk.FeatureCount]float64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	i := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Class, nil
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return 0, fmt.Errorf("%w: no leaf reached", ErrInvalidTree)
}
