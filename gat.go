// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package gat implements layers for graph neural networks over dense adjacency
// matrices: the multi-head graph attention layer described in the paper
// "Graph Attention Networks", https://arxiv.org/abs/1710.10903, by Petar
// Veličković, Guillem Cucurull, Arantxa Casanova, Adriana Romero, Pietro Liò
// and Yoshua Bengio, plus the plain mean-aggregating graph convolution it is
// usually compared against.
//
// Graphs are given as a batch of node feature vectors, shaped
// `[batchSize, numNodes, featureDim]`, and a batch of adjacency matrices,
// shaped `[batchSize, numNodes, numNodes]` with values in {0, 1} (or Bool).
// Row index is the destination node and column index the source node:
// `adjacency[b, i, j] != 0` means node `i` aggregates (attends to) node `j`.
// For undirected graphs pass a symmetric adjacency. Both layers expect
// self-loops to be already included -- see AddSelfLoops.
//
// E.g.: one attention round followed by per-node classification:
//
//	func MyModel(ctx *context.Context, inputs []*Node) (outputs []*Node) {
//		nodes, adjacency := inputs[0], inputs[1]
//		adjacency = gat.AddSelfLoops(adjacency)
//		ctx = ctx.In("model")
//		hidden := gat.New(ctx.In("gat_0"), nodes, adjacency, 64).
//			NumHeads(4).
//			Done()
//		hidden = activations.Relu(hidden)
//		logits := gat.New(ctx.In("gat_1"), hidden, adjacency, NumClasses).
//			ConcatHeads(false).
//			Done()
//		return []*Node{logits}
//	}
package gat

import (
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/layers/activations"
	. "github.com/gomlx/gomlx/pkg/support/exceptions"
)

const (
	// ParamNumHeads is the hyperparameter that defines the default number of attention heads.
	// The default is 1 (int).
	ParamNumHeads = "gat_num_heads"

	// ParamConcatHeads is the hyperparameter that defines whether the per-head outputs are
	// concatenated (true) or averaged (false).
	// The default is true (bool).
	ParamConcatHeads = "gat_concat_heads"

	// ParamNegativeSlope is the hyperparameter that defines the negative slope of the leaky-rectifier
	// applied to the attention logits.
	// The default is 0.2 (float64).
	ParamNegativeSlope = "gat_negative_slope"
)

// initializationGain is the gain of the Xavier-normal initialization of the layer parameters,
// the value (~sqrt(2)) the reference GAT implementation uses.
const initializationGain = 1.414

// Config is created with New and can be configured with its methods or simply setting the
// corresponding hyperparameters in the context.
type Config struct {
	ctx                     *context.Context
	nodeFeatures, adjacency *Node

	outputDim     int
	numHeads      int
	concatHeads   bool
	negativeSlope float64
	logWeights    bool
}

// New creates the configuration for a graph attention layer that computes, for every node, an
// attention-weighted aggregation of its neighbors' (linearly projected) features.
//
// It is initialized with defaults and with hyperparameters from the given Context
// (see ParamNumHeads, ParamConcatHeads and ParamNegativeSlope), and can be further configured
// with the various Config methods. Once configured, call Config.Done (or
// Config.DoneWithCoefficients) to add the layer to the computation graph and get its output.
//
// Arguments:
//   - nodeFeatures must be shaped `[batchSize, numNodes, featureDim]` and have a float dtype.
//   - adjacency must be shaped `[batchSize, numNodes, numNodes]`, with values in {0, 1} if
//     numeric (anything non-zero is taken as an edge), or Bool. Row index is the destination,
//     column index the source, and self-loops are expected to be already included (see
//     AddSelfLoops). Values other than 0 or 1 are not validated.
//
// The output is shaped `[batchSize, numNodes, outputDim]`: when concatenating heads each head
// contributes an `outputDim/numHeads` slice (in head order), and outputDim must be divisible by
// numHeads; when averaging, each head produces a full `outputDim`-sized output and the heads
// are averaged.
//
// The layer owns two trainable variables, created in the `ctx.In("gat")` scope: "weights", the
// bias-free projection shaped `[featureDim, numHeads, headDim]`, and "attention", the per-head
// attention vector shaped `[numHeads, 2*headDim]`. Both are initialized with a Xavier-normal
// of gain 1.414 (see XavierNormalWithGainFn).
func New(ctx *context.Context, nodeFeatures, adjacency *Node, outputDim int) *Config {
	validateGraphInputs("gat", nodeFeatures, adjacency)
	if outputDim <= 0 {
		Panicf("gat: outputDim must be > 0, got %d", outputDim)
	}
	return &Config{
		ctx:           ctx.In("gat"),
		nodeFeatures:  nodeFeatures,
		adjacency:     adjacency,
		outputDim:     outputDim,
		numHeads:      context.GetParamOr(ctx, ParamNumHeads, 1),
		concatHeads:   context.GetParamOr(ctx, ParamConcatHeads, true),
		negativeSlope: context.GetParamOr(ctx, ParamNegativeSlope, 0.2),
	}
}

// NumHeads sets the number of independent attention heads.
//
// The default is 1, but it can be overridden by setting the hyperparameter ParamNumHeads
// (="gat_num_heads") in the context.
func (c *Config) NumHeads(numHeads int) *Config {
	if numHeads < 1 {
		Panicf("gat: numHeads must be >= 1, got %d", numHeads)
	}
	c.numHeads = numHeads
	return c
}

// ConcatHeads defines how the per-head outputs are combined: if true (the default) they are
// concatenated, and the configured outputDim must be divisible by the number of heads; if
// false each head produces a full outputDim-sized output, and the heads are averaged.
//
// Averaging is typically used on the final (prediction) layer of a GAT, concatenation on the
// intermediary ones.
//
// It can be overridden by setting the hyperparameter ParamConcatHeads (="gat_concat_heads")
// in the context.
func (c *Config) ConcatHeads(concat bool) *Config {
	c.concatHeads = concat
	return c
}

// NegativeSlope sets the negative slope (often called alpha) of the leaky-rectifier applied to
// the attention logits: values below zero are scaled by it instead of clipped, preserving
// gradient flow for negative logits.
//
// The default is 0.2, but it can be overridden by setting the hyperparameter
// ParamNegativeSlope (="gat_negative_slope") in the context.
func (c *Config) NegativeSlope(alpha float64) *Config {
	c.negativeSlope = alpha
	return c
}

// LogAttentionWeights enables logging (see Node.SetLogged) of the attention weights, transposed
// to `[batchSize, numHeads, numNodes, numNodes]`, whenever the graph is executed. For debugging
// only, it has no effect on the layer output.
func (c *Config) LogAttentionWeights() *Config {
	c.logWeights = true
	return c
}

// Done takes the configuration and adds the graph attention layer to the computation graph,
// returning its output, shaped `[batchSize, numNodes, outputDim]`.
func (c *Config) Done() *Node {
	output, _ := c.DoneWithCoefficients()
	return output
}

// DoneWithCoefficients is like Done, but also returns the attention coefficients (weights) used,
// shaped `[batchSize, numNodes, numNodes, numHeads]`, indexed as `[batch, destination, source,
// head]`: per destination node and head they sum to 1 over the sources allowed by the adjacency,
// and are 0 elsewhere.
func (c *Config) DoneWithCoefficients() (output, coefficients *Node) {
	ctx := c.ctx
	g := c.nodeFeatures.Graph()
	dtype := c.nodeFeatures.DType()
	batchSize := c.nodeFeatures.Shape().Dim(0)
	numNodes := c.nodeFeatures.Shape().Dim(1)
	featureDim := c.nodeFeatures.Shape().Dim(2)

	headDim := c.outputDim
	if c.concatHeads {
		if c.outputDim%c.numHeads != 0 {
			Panicf("gat: when concatenating heads outputDim (%d) must be divisible by numHeads (%d)",
				c.outputDim, c.numHeads)
		}
		headDim = c.outputDim / c.numHeads
	}

	initCtx := ctx.WithInitializer(XavierNormalWithGainFn(ctx, initializationGain))

	// Bias-free projection of every node's features, separated per head.
	// b->batch, n->node, f->featureDim, h->head, d->headDim.
	weightsVar := initCtx.VariableWithShape("weights", shapes.Make(dtype, featureDim, c.numHeads, headDim))
	projected := Einsum("bnf,fhd->bnhd", c.nodeFeatures, weightsVar.ValueGraph(g))

	// The attention vector scores the concatenation [destination‖source] of projected features,
	// so its first headDim entries score the destination and the last headDim the source.
	attentionVar := initCtx.VariableWithShape("attention", shapes.Make(dtype, c.numHeads, 2*headDim))
	attention := attentionVar.ValueGraph(g)
	destHalf := Slice(attention, AxisRange(), AxisRangeFromStart(headDim))
	sourceHalf := Slice(attention, AxisRange(), AxisRangeToEnd(headDim))

	// The logit of edge (i, j) decomposes as destScore[i] + sourceScore[j], so the dense
	// `[batch, numNodes, numNodes, numHeads]` logits are a broadcast sum of the two
	// per-node scores.
	destScores := Einsum("bnhd,hd->bnh", projected, destHalf)
	sourceScores := Einsum("bnhd,hd->bnh", projected, sourceHalf)
	logits := Add(InsertAxes(destScores, 2), InsertAxes(sourceScores, 1))
	logits = activations.LeakyReluWith(logits, c.negativeSlope)

	// Normalize per destination node and head, over the sources allowed by the adjacency
	// (axis 2): non-edges get coefficient 0.
	mask := adjacencyMask(c.adjacency)
	mask = BroadcastToDims(InsertAxes(mask, -1), batchSize, numNodes, numNodes, c.numHeads)
	coefficients = MaskedSoftmax(logits, mask, 2)
	if c.logWeights {
		logged := TransposeAllDims(coefficients, 0, 3, 1, 2)
		logged.SetLogged("gat: attention weights [batch, head, destination, source]")
	}

	// Each destination aggregates its sources' projected features, weighted by attention.
	// i->destination node, j->source node.
	output = Einsum("bijh,bjhd->bihd", coefficients, projected)
	if c.concatHeads {
		output = Reshape(output, batchSize, numNodes, c.outputDim)
	} else {
		output = ReduceMean(output, 2)
	}
	return
}
