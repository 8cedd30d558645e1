// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gat

import (
	"github.com/gomlx/gomlx/pkg/core/dtypes"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	. "github.com/gomlx/gomlx/pkg/support/exceptions"
)

// AddSelfLoops returns the adjacency with the diagonal of every `[numNodes, numNodes]` slice
// set to 1 (or true, for a Bool adjacency), so every node is its own neighbor. The layers in
// this package expect self-loops to be already included; this saves callers the same dance.
//
// adjacency must be shaped `[batchSize, numNodes, numNodes]`.
func AddSelfLoops(adjacency *Node) *Node {
	if adjacency.Rank() != 3 || adjacency.Shape().Dim(1) != adjacency.Shape().Dim(2) {
		Panicf("gat: AddSelfLoops requires adjacency shaped [batchSize, numNodes, numNodes], got %s",
			adjacency.Shape())
	}
	g := adjacency.Graph()
	numNodes := adjacency.Shape().Dim(1)
	diagonal := InsertAxes(Diagonal(g, numNodes), 0)
	diagonal = BroadcastToDims(diagonal, adjacency.Shape().Dimensions...)
	if adjacency.DType() == dtypes.Bool {
		return LogicalOr(adjacency, diagonal)
	}
	return Where(diagonal, OnesLike(adjacency), adjacency)
}

// adjacencyMask converts the adjacency to a boolean edge mask: any non-zero entry counts as an
// edge. Values other than 0 and 1 are not detected.
func adjacencyMask(adjacency *Node) *Node {
	if adjacency.DType() == dtypes.Bool {
		return adjacency
	}
	g := adjacency.Graph()
	return NotEqual(adjacency, ScalarZero(g, adjacency.DType()))
}

// validateGraphInputs checks the nodeFeatures/adjacency conventions shared by the layers in
// this package. Mismatches panic immediately, everything else is left to the graph ops.
func validateGraphInputs(layerName string, nodeFeatures, adjacency *Node) {
	if nodeFeatures.Rank() != 3 || !nodeFeatures.DType().IsFloat() {
		Panicf("%s: nodeFeatures must be a float tensor shaped [batchSize, numNodes, featureDim], got %s",
			layerName, nodeFeatures.Shape())
	}
	if adjacency.Rank() != 3 || adjacency.Shape().Dim(1) != adjacency.Shape().Dim(2) {
		Panicf("%s: adjacency must be shaped [batchSize, numNodes, numNodes], got %s",
			layerName, adjacency.Shape())
	}
	if adjacency.Shape().Dim(0) != nodeFeatures.Shape().Dim(0) ||
		adjacency.Shape().Dim(1) != nodeFeatures.Shape().Dim(1) {
		Panicf("%s: nodeFeatures (%s) and adjacency (%s) disagree on batch size or number of nodes",
			layerName, nodeFeatures.Shape(), adjacency.Shape())
	}
}
