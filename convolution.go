// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gat

import (
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/ml/context"
	. "github.com/gomlx/gomlx/pkg/support/exceptions"
)

// Convolution applies one graph convolution (GCN) layer: each node's features are linearly
// projected to outputDim and then averaged over its neighbors, as given by adjacency.
//
// It serves as the simpler baseline to the attention layer built by New: every neighbor
// contributes with the same weight, 1/degree, instead of a learned attention coefficient.
//
// nodeFeatures must be shaped `[batchSize, numNodes, featureDim]` and adjacency
// `[batchSize, numNodes, numNodes]`, with row=destination, column=source and self-loops
// already included where wanted (see AddSelfLoops). Nodes with no incoming edges get a zero
// output row.
//
// It creates the projection variable in `ctx.In("gcn")`.
func Convolution(ctx *context.Context, nodeFeatures, adjacency *Node, outputDim int) *Node {
	validateGraphInputs("gcn", nodeFeatures, adjacency)
	if outputDim <= 0 {
		Panicf("gcn: outputDim must be positive, got %d", outputDim)
	}
	ctx = ctx.In("gcn")
	g := nodeFeatures.Graph()
	dtype := nodeFeatures.DType()
	featureDim := nodeFeatures.Shape().Dim(2)

	weightsVar := ctx.WithInitializer(XavierNormalWithGainFn(ctx, 1.0)).
		VariableWithShape("weights", shapes.Make(dtype, featureDim, outputDim))
	projected := Einsum("bnf,fo->bno", nodeFeatures, weightsVar.ValueGraph(g))

	edges := ConvertDType(adjacencyMask(adjacency), dtype)
	// Sum over sources (j), then normalize by the in-degree of each destination.
	aggregated := Einsum("bij,bjo->bio", edges, projected)
	degree := ReduceAndKeep(edges, ReduceSum, -1)
	return Div(aggregated, MaxScalar(degree, 1))
}
