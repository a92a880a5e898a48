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
	"math/rand"
	"testing"

	"github.com/quantkernel/go-bestla/kernel/ref"
)

func TestLayerNorm(t *testing.T) {
	rng := rand.New(rand.NewSource(70))
	tests := []struct {
		name       string
		normSize   int
		simplified bool
		affine     bool
	}{
		{name: "plain", normSize: 100},
		{name: "affine", normSize: 100, affine: true},
		{name: "rms", normSize: 100, simplified: true},
		{name: "rms with scale", normSize: 100, simplified: true, affine: true},
		{name: "below vector width", normSize: 3},
		{name: "non-aligned", normSize: 77, affine: true},
	}
	const tol = 1e-5
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := make([]float32, tt.normSize)
			for i := range src {
				src[i] = rng.Float32()*6 - 3
			}
			var scale, bias []float32
			if tt.affine {
				scale = make([]float32, tt.normSize)
				bias = make([]float32, tt.normSize)
				for i := range scale {
					scale[i] = 0.5 + rng.Float32()
					bias[i] = rng.Float32() - 0.5
				}
			}
			got := make([]float32, tt.normSize)
			want := make([]float32, tt.normSize)
			var gotMean, gotMeanSq, wantMean, wantMeanSq float32
			err := LayerNorm(src, scale, bias, 1e-5, tt.normSize, got, &gotMean, &gotMeanSq, tt.simplified)
			if err != nil {
				t.Fatal(err)
			}
			err = ref.LayerNorm(src, scale, bias, 1e-5, tt.normSize, want, &wantMean, &wantMeanSq, tt.simplified)
			if err != nil {
				t.Fatal(err)
			}
			// Summation order differs between paths.
			for i := range got {
				if diff := math.Abs(float64(got[i] - want[i])); diff > tol {
					t.Fatalf("element %d: got %v, want %v", i, got[i], want[i])
				}
			}
			if diff := math.Abs(float64(gotMean - wantMean)); diff > tol {
				t.Errorf("mean: got %v, want %v", gotMean, wantMean)
			}
			if diff := math.Abs(float64(gotMeanSq - wantMeanSq)); diff > tol {
				t.Errorf("meanSq: got %v, want %v", gotMeanSq, wantMeanSq)
			}
		})
	}
}

func TestLayerNormZeroMeanUnitVar(t *testing.T) {
	normSize := 64
	src := make([]float32, normSize)
	for i := range src {
		src[i] = float32(i)
	}
	dst := make([]float32, normSize)
	if err := LayerNorm(src, nil, nil, 0, normSize, dst, nil, nil, false); err != nil {
		t.Fatal(err)
	}
	var sum, sumSq float64
	for _, v := range dst {
		sum += float64(v)
		sumSq += float64(v) * float64(v)
	}
	if mean := sum / float64(normSize); math.Abs(mean) > 1e-5 {
		t.Errorf("normalized mean = %v, want ~0", mean)
	}
	if varr := sumSq / float64(normSize); math.Abs(varr-1) > 1e-4 {
		t.Errorf("normalized variance = %v, want ~1", varr)
	}
}
