// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gat

import (
	"math"

	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/ml/context"
)

// XavierNormalWithGainFn returns a gain-scaled variant of initializers.XavierNormalFn: values
// are sampled from a normal distribution with mean 0 and standard deviation
// `gain * sqrt(2 / (fanIn + fanOut))`, where fanIn is the first axis of the variable and
// fanOut the size of the remaining axes.
//
// A gain > 1 compensates for the contraction of non-linear activations -- the GAT reference
// initialization uses 1.414 (~sqrt(2)) for its leaky-rectified attention logits.
//
// Variables of rank <= 1 (biases) and non-float variables are initialized with zeros.
func XavierNormalWithGainFn(ctx *context.Context, gain float64) context.VariableInitializer {
	return func(g *Graph, shape shapes.Shape) *Node {
		if !shape.DType.IsFloat() || shape.Rank() <= 1 {
			return Zeros(g, shape)
		}
		fanIn := shape.Dimensions[0]
		fanOut := shape.Size() / fanIn
		stddev := gain * math.Sqrt(2.0/float64(fanIn+fanOut))
		return MulScalar(ctx.RandomNormal(g, shape), stddev)
	}
}
