package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const TypeDecisionTree = "decision_tree"

// DecisionTree is an exported tree classifier. It has no probability output.
type DecisionTree struct {
	featureNames []string
	nodes        []TreeNode
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	IsLeaf     bool    `json:"is_leaf"`
}

// NewDecisionTree validates the node layout. Children must come after their
// parent so traversal always terminates.
func NewDecisionTree(featureNames []string, nodes []TreeNode) (*DecisionTree, error) {
	if len(featureNames) == 0 {
		return nil, errors.New("feature names missing")
	}
	if len(nodes) == 0 {
		return nil, errors.New("tree has no nodes")
	}
	for i, node := range nodes {
		if node.IsLeaf {
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(featureNames) {
			return nil, fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(nodes) {
				return nil, fmt.Errorf("node %d: invalid child %d", i, child)
			}
		}
	}
	return &DecisionTree{
		featureNames: append([]string(nil), featureNames...),
		nodes:        append([]TreeNode(nil), nodes...),
	}, nil
}

func (dt *DecisionTree) Type() string { return TypeDecisionTree }

func (dt *DecisionTree) FeatureNames() []string {
	return append([]string(nil), dt.featureNames...)
}

func (dt *DecisionTree) Predict(features []float64) (int, error) {
	if len(dt.nodes) == 0 {
		return 0, errors.New("model not loaded")
	}
	if len(features) != len(dt.featureNames) {
		return 0, fmt.Errorf("expected %d features, got %d", len(dt.featureNames), len(features))
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node.ClassLabel, nil
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

// Save writes the tree in the artifact format LoadModel reads. Trees are
// trained upstream; this is used to produce fixtures.
func (dt *DecisionTree) Save(path string) error {
	if len(dt.nodes) == 0 {
		return errors.New("model not loaded")
	}
	payload, err := json.MarshalIndent(artifact{
		Type:         TypeDecisionTree,
		FeatureNames: dt.featureNames,
		Nodes:        dt.nodes,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}
