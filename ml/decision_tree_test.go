package ml

import "testing"

func basicTree(t *testing.T) *DecisionTree {
	t.Helper()
	// Lifespan <= 40 -> offspring <= 2 -> at risk
	nodes := []TreeNode{
		{FeatureIdx: 2, Threshold: 40, LeftChild: 1, RightChild: 4},
		{FeatureIdx: 5, Threshold: 2, LeftChild: 2, RightChild: 3},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: 1, IsLeaf: true},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: 0, IsLeaf: true},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: 1, IsLeaf: true},
	}
	tree, err := NewDecisionTree(FeatureNames(SchemaBasic), nodes)
	if err != nil {
		t.Fatalf("NewDecisionTree: %v", err)
	}
	return tree
}

func TestDecisionTreePredict(t *testing.T) {
	tree := basicTree(t)

	label, err := tree.Predict([]float64{100, 100, 20, 20, 100, 1, 1.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 {
		t.Fatalf("expected label 1, got %d", label)
	}

	label, err = tree.Predict([]float64{100, 100, 20, 20, 100, 8, 1.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}

	if _, err := tree.Predict([]float64{1, 2}); err == nil {
		t.Fatal("expected error for short feature vector")
	}
}

func TestDecisionTreeRejectsBadLayout(t *testing.T) {
	names := FeatureNames(SchemaBasic)
	tests := []struct {
		name  string
		nodes []TreeNode
	}{
		{"empty", nil},
		{"feature out of range", []TreeNode{
			{FeatureIdx: 9, LeftChild: 1, RightChild: 2},
			{IsLeaf: true},
			{IsLeaf: true},
		}},
		{"child points backwards", []TreeNode{
			{FeatureIdx: 0, LeftChild: 0, RightChild: 1},
			{IsLeaf: true},
		}},
		{"child past end", []TreeNode{
			{FeatureIdx: 0, LeftChild: 1, RightChild: 5},
			{IsLeaf: true},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDecisionTree(names, tt.nodes); err == nil {
				t.Fatal("expected layout error")
			}
		})
	}
}

func TestDecisionTreeHasNoProbability(t *testing.T) {
	var model MLModel = basicTree(t)
	if _, ok := model.(ProbabilityModel); ok {
		t.Fatal("decision tree should not expose probabilities")
	}
}
