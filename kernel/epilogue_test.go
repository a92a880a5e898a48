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
	"math/rand"
	"testing"

	"github.com/quantkernel/go-bestla/dtype"
	"github.com/quantkernel/go-bestla/kernel/ref"
)

func randAcc(rng *rand.Rand, n int) []float32 {
	a := make([]float32, n)
	for i := range a {
		a[i] = rng.Float32()*20 - 10
	}
	return a
}

// With all zero points at zero every correction variant must leave the
// accumulator untouched.
func TestZeroPointBiasIdempotence(t *testing.T) {
	rng := rand.New(rand.NewSource(50))
	row, col, k := 4, 48, 64
	orig := randAcc(rng, row*col)
	scalesA := randScales(rng, row)
	scalesB := randScales(rng, col)
	reduceA := randAcc(rng, row)
	reduceB := randAcc(rng, col)
	zpa := make([]uint8, row)
	zpb := make([]int8, col)

	check := func(t *testing.T, name string, acc []float32) {
		for i := range acc {
			if acc[i] != orig[i] {
				t.Fatalf("%s element %d: got %v, want unchanged %v", name, i, acc[i], orig[i])
			}
		}
	}

	acc := append([]float32(nil), orig...)
	if err := RemoveActZeroPointBias(acc, col, row, col, zpa, scalesA, 1, reduceB); err != nil {
		t.Fatal(err)
	}
	check(t, "act", acc)

	acc = append([]float32(nil), orig...)
	if err := RemoveWeiZeroPointBias(acc, col, row, col, zpb, scalesB, 1, reduceA); err != nil {
		t.Fatal(err)
	}
	check(t, "wei", acc)

	acc = append([]float32(nil), orig...)
	if err := RemoveZeroPointBias(acc, col, row, col, zpa, zpb, scalesA, scalesB, 1, k, reduceA, reduceB); err != nil {
		t.Fatal(err)
	}
	check(t, "both", acc)
}

func TestRemoveZeroPointBiasCrossPath(t *testing.T) {
	rng := rand.New(rand.NewSource(51))
	row, col, k := 5, 50, 128
	orig := randAcc(rng, row*col)
	scalesA := randScales(rng, row)
	scalesB := randScales(rng, col)
	reduceA := randAcc(rng, row)
	reduceB := randAcc(rng, col)
	zpa := make([]uint8, row)
	zpb := make([]int8, col)
	for i := range zpa {
		zpa[i] = uint8(rng.Intn(256))
	}
	for i := range zpb {
		zpb[i] = int8(rng.Intn(21) - 10)
	}

	got := append([]float32(nil), orig...)
	want := append([]float32(nil), orig...)
	if err := RemoveZeroPointBias(got, col, row, col, zpa, zpb, scalesA, scalesB, 1, k, reduceA, reduceB); err != nil {
		t.Fatal(err)
	}
	if err := ref.RemoveZeroPointBias(want, col, row, col, zpa, zpb, scalesA, scalesB, 1, k, reduceA, reduceB); err != nil {
		t.Fatal(err)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("element %d: got %v, want %v", i, got[i], want[i])
		}
	}

	got = append([]float32(nil), orig...)
	want = append([]float32(nil), orig...)
	if err := RemoveActZeroPointBias(got, col, row, col, zpa, scalesA, 1, reduceB); err != nil {
		t.Fatal(err)
	}
	if err := ref.RemoveActZeroPointBias(want, col, row, col, zpa, scalesA, 1, reduceB); err != nil {
		t.Fatal(err)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("act element %d: got %v, want %v", i, got[i], want[i])
		}
	}

	got = append([]float32(nil), orig...)
	want = append([]float32(nil), orig...)
	if err := RemoveWeiZeroPointBias(got, col, row, col, zpb, scalesB, 1, reduceA); err != nil {
		t.Fatal(err)
	}
	if err := ref.RemoveWeiZeroPointBias(want, col, row, col, zpb, scalesB, 1, reduceA); err != nil {
		t.Fatal(err)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("wei element %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAlphaBetaF32(t *testing.T) {
	rng := rand.New(rand.NewSource(52))
	m, n := 3, 50
	src := randAcc(rng, m*n)
	src1 := randAcc(rng, m*n)

	tests := []struct {
		name  string
		alpha float32
		beta  float32
	}{
		{name: "scale and accumulate", alpha: 1.5, beta: 0.5},
		{name: "beta zero skips src1", alpha: 2, beta: 0},
		{name: "identity", alpha: 1, beta: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make([]float32, m*n)
			want := make([]float32, m*n)
			s1 := src1
			if tt.beta == 0 {
				s1 = nil
			}
			if err := AlphaBetaF32(tt.alpha, src, n, tt.beta, s1, n, got, n, m, n); err != nil {
				t.Fatal(err)
			}
			if err := ref.AlphaBetaF32(tt.alpha, src, n, tt.beta, s1, n, want, n, m, n); err != nil {
				t.Fatal(err)
			}
			for i := range got {
				if got[i] != want[i] {
					t.Fatalf("element %d: got %v, want %v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestAccumAlphaN(t *testing.T) {
	rng := rand.New(rand.NewSource(53))
	m, n := 4, 40
	src := randAcc(rng, m*n)
	base := randAcc(rng, m*n)

	alphaF := randScales(rng, n)
	alphaH := make([]dtype.BF16, n)
	for i, a := range alphaF {
		alphaH[i] = dtype.BF16FromFloat32(a)
	}
	alphaE := make([]dtype.F8, n)
	for i := range alphaE {
		alphaE[i] = dtype.F8(rng.Intn(9) - 4)
	}

	run := func(t *testing.T, kernelFn, refFn func(dst []float32) error) {
		got := append([]float32(nil), base...)
		want := append([]float32(nil), base...)
		if err := kernelFn(got); err != nil {
			t.Fatal(err)
		}
		if err := refFn(want); err != nil {
			t.Fatal(err)
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("element %d: got %v, want %v", i, got[i], want[i])
			}
		}
	}

	t.Run("f32 alpha", func(t *testing.T) {
		run(t,
			func(dst []float32) error { return AccumAlphaN(alphaF, src, n, dst, n, m, n) },
			func(dst []float32) error { return ref.AccumAlphaN(alphaF, src, n, dst, n, m, n) })
	})
	t.Run("bf16 alpha", func(t *testing.T) {
		run(t,
			func(dst []float32) error { return AccumAlphaN(alphaH, src, n, dst, n, m, n) },
			func(dst []float32) error { return ref.AccumAlphaN(alphaH, src, n, dst, n, m, n) })
	})
	t.Run("f8 exponent alpha", func(t *testing.T) {
		run(t,
			func(dst []float32) error { return AccumAlphaN(alphaE, src, n, dst, n, m, n) },
			func(dst []float32) error { return ref.AccumAlphaN(alphaE, src, n, dst, n, m, n) })
	})
}
