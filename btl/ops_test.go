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

package btl

import (
	"math"
	"testing"
)

func TestMaxLanes(t *testing.T) {
	if n := MaxLanes[float32](); n < 4 {
		t.Errorf("MaxLanes[float32]() = %d, want >= 4", n)
	}
	if f32, f64 := MaxLanes[float32](), MaxLanes[float64](); f32 != 2*f64 {
		t.Errorf("float32 lanes = %d, float64 lanes = %d, want 2x ratio", f32, f64)
	}
}

func TestLoadStoreRoundTrip(t *testing.T) {
	lanes := NumLanes[float32]()
	src := make([]float32, lanes)
	for i := range src {
		src[i] = float32(i) - 1.5
	}
	dst := make([]float32, lanes)
	Store(Load(src), dst)
	for i := range src {
		if dst[i] != src[i] {
			t.Errorf("lane %d: got %v, want %v", i, dst[i], src[i])
		}
	}
}

func TestLoadPartial(t *testing.T) {
	src := []float32{1, 2, 3}
	v := Load(src)
	out := make([]float32, NumLanes[float32]())
	Store(v, out)
	want := []float32{1, 2, 3}
	for i, w := range want {
		if out[i] != w {
			t.Errorf("lane %d: got %v, want %v", i, out[i], w)
		}
	}
	for i := len(want); i < len(out); i++ {
		if out[i] != 0 {
			t.Errorf("lane %d: got %v, want 0 padding", i, out[i])
		}
	}
}

func TestArithmetic(t *testing.T) {
	lanes := NumLanes[float32]()
	a := make([]float32, lanes)
	b := make([]float32, lanes)
	for i := range a {
		a[i] = float32(i + 1)
		b[i] = float32(2 * (i + 1))
	}
	va, vb := Load(a), Load(b)

	tests := []struct {
		name string
		got  Vec[float32]
		want func(x, y float32) float32
	}{
		{"add", Add(va, vb), func(x, y float32) float32 { return x + y }},
		{"sub", Sub(va, vb), func(x, y float32) float32 { return x - y }},
		{"mul", Mul(va, vb), func(x, y float32) float32 { return x * y }},
		{"div", Div(va, vb), func(x, y float32) float32 { return x / y }},
		{"min", Min(va, vb), func(x, y float32) float32 { return float32(math.Min(float64(x), float64(y))) }},
		{"max", Max(va, vb), func(x, y float32) float32 { return float32(math.Max(float64(x), float64(y))) }},
	}
	out := make([]float32, lanes)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Store(tt.got, out)
			for i := range out {
				if want := tt.want(a[i], b[i]); out[i] != want {
					t.Errorf("lane %d: got %v, want %v", i, out[i], want)
				}
			}
		})
	}
}

func TestMulAdd(t *testing.T) {
	lanes := NumLanes[float32]()
	a := make([]float32, lanes)
	b := make([]float32, lanes)
	c := make([]float32, lanes)
	for i := range a {
		a[i] = float32(i) * 0.5
		b[i] = float32(i) + 1
		c[i] = -float32(i)
	}
	out := make([]float32, lanes)
	Store(MulAdd(Load(a), Load(b), Load(c)), out)
	for i := range out {
		if want := a[i]*b[i] + c[i]; out[i] != want {
			t.Errorf("lane %d: got %v, want %v", i, out[i], want)
		}
	}
}

func TestRoundHalfToEven(t *testing.T) {
	in := []float32{0.5, 1.5, 2.5, -0.5, -1.5, 2.4, 2.6, -2.5}
	want := []float32{0, 2, 2, 0, -2, 2, 3, -2}
	n := len(in)
	if lanes := NumLanes[float32](); lanes < n {
		n = lanes
	}
	out := make([]float32, len(in))
	Store(Round(Load(in)), out)
	for i := 0; i < n; i++ {
		if out[i] != want[i] {
			t.Errorf("round(%v) = %v, want %v", in[i], out[i], want[i])
		}
	}
}

func TestClamp(t *testing.T) {
	in := []float32{-10, 0, 5, 300}
	lo := Set[float32](0)
	hi := Set[float32](255)
	out := make([]float32, NumLanes[float32]())
	Store(Clamp(Load(in), lo, hi), out)
	want := []float32{0, 0, 5, 255}
	for i := range in {
		if out[i] != want[i] {
			t.Errorf("clamp(%v) = %v, want %v", in[i], out[i], want[i])
		}
	}
}

func TestReductions(t *testing.T) {
	lanes := NumLanes[float32]()
	src := make([]float32, lanes)
	sum := float32(0)
	for i := range src {
		src[i] = float32(i + 1)
		sum += src[i]
	}
	v := Load(src)
	if got := ReduceSum(v); got != sum {
		t.Errorf("ReduceSum = %v, want %v", got, sum)
	}
	if got := ReduceMin(v); got != 1 {
		t.Errorf("ReduceMin = %v, want 1", got)
	}
	if got := ReduceMax(v); got != float32(lanes) {
		t.Errorf("ReduceMax = %v, want %v", got, float32(lanes))
	}
}

func TestIfThenElse(t *testing.T) {
	a := []float32{1, 5, 3, 7}
	b := []float32{4, 2, 6, 0}
	va, vb := Load(a), Load(b)
	out := make([]float32, NumLanes[float32]())
	Store(IfThenElse(LessThan(va, vb), va, vb), out)
	for i := range a {
		want := a[i]
		if !(a[i] < b[i]) {
			want = b[i]
		}
		if out[i] != want {
			t.Errorf("lane %d: got %v, want %v", i, out[i], want)
		}
	}
}

func TestDispatchState(t *testing.T) {
	if CurrentWidth() < 16 {
		t.Errorf("CurrentWidth() = %d, want >= 16", CurrentWidth())
	}
	if CurrentName() == "" {
		t.Error("CurrentName() is empty")
	}
	if CurrentWidth()/4 != NumLanes[float32]() {
		t.Errorf("width %d disagrees with float32 lanes %d", CurrentWidth(), NumLanes[float32]())
	}
}
