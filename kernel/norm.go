// Copyright 2025 go-bestla Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package kernel

import (
	"math"

	"github.com/quantkernel/go-bestla/btl"
)

// LayerNorm normalizes one contiguous vector in a single pass over the
// data, optionally applying affine scale and bias. simplified selects
// the RMS-norm variant (no mean subtraction, no bias). meanOut and
// meanSqOut, when non-nil, receive the computed statistics.
func LayerNorm(src, scale, bias []float32, epsilon float32, normSize int,
	dst []float32, meanOut, meanSqOut *float32, simplified bool) error {
	lanes := btl.NumLanes[float32]()

	vsum := btl.Zero[float32]()
	vsumsq := btl.Zero[float32]()
	h := 0
	for ; h+lanes <= normSize; h += lanes {
		v := btl.Load(src[h : h+lanes])
		vsum = btl.Add(vsum, v)
		vsumsq = btl.MulAdd(v, v, vsumsq)
	}
	mean := btl.ReduceSum(vsum)
	meanSq := btl.ReduceSum(vsumsq)
	for ; h < normSize; h++ {
		mean += src[h]
		meanSq += src[h] * src[h]
	}
	mean /= float32(normSize)
	if simplified {
		meanSq = float32(math.Sqrt(float64(meanSq/float32(normSize) + epsilon)))
	} else {
		meanSq = float32(math.Sqrt(float64(meanSq/float32(normSize) - mean*mean + epsilon)))
	}
	inv := 1 / meanSq

	vmean := btl.Set(mean)
	vinv := btl.Set(inv)
	h = 0
	for ; h+lanes <= normSize; h += lanes {
		v := btl.Load(src[h : h+lanes])
		if simplified {
			v = btl.Mul(v, vinv)
		} else {
			v = btl.Mul(btl.Sub(v, vmean), vinv)
		}
		if scale != nil {
			v = btl.Mul(v, btl.Load(scale[h:h+lanes]))
		}
		if !simplified && bias != nil {
			v = btl.Add(v, btl.Load(bias[h:h+lanes]))
		}
		btl.Store(v, dst[h:h+lanes])
	}
	for ; h < normSize; h++ {
		var v float32
		if simplified {
			v = src[h] * inv
		} else {
			v = (src[h] - mean) * inv
		}
		if scale != nil {
			v *= scale[h]
		}
		if !simplified && bias != nil {
			v += bias[h]
		}
		dst[h] = v
	}
	if meanOut != nil {
		*meanOut = mean
	}
	if meanSqOut != nil {
		*meanSqOut = meanSq
	}
	return nil
}
