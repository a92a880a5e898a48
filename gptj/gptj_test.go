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

package gptj

import (
	"math/rand"
	"testing"

	"github.com/quantkernel/go-bestla/dtype"
	"github.com/quantkernel/go-bestla/kernel/ref"
)

func TestSizeForLayers(t *testing.T) {
	tests := []struct {
		layers int
		want   ModelSize
	}{
		{28, Size7B}, {40, Size13B}, {60, Size30B}, {80, Size65B}, {12, SizeUnknown},
	}
	for _, tt := range tests {
		if got := SizeForLayers(tt.layers); got != tt.want {
			t.Errorf("SizeForLayers(%d) = %v, want %v", tt.layers, got, tt.want)
		}
	}
}

func TestScratchReq(t *testing.T) {
	s, err := ScratchReq(28, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if s.Scratch0 != 3072*mb || s.Scratch1 != 2048*mb || s.EvalSize != 3072*mb {
		t.Errorf("unexpected budget %+v", s)
	}
	doubled, err := ScratchReq(28, 2.0)
	if err != nil {
		t.Fatal(err)
	}
	if doubled.Scratch0 != 2*s.Scratch0 {
		t.Errorf("enlarge 2.0: got %d, want %d", doubled.Scratch0, 2*s.Scratch0)
	}
	if _, err := ScratchReq(40, 1.0); err == nil {
		t.Error("40 layers: want error, got nil")
	}
}

func TestTensorDequantize(t *testing.T) {
	rng := rand.New(rand.NewSource(80))
	rows, cols, kblock := 64, 32, 32
	packed := make([]byte, rows*cols/2)
	for i := range packed {
		packed[i] = byte(rng.Intn(256))
	}
	nblk := rows / kblock
	scales := make([]float32, nblk*cols)
	for i := range scales {
		scales[i] = 0.01 + 0.01*rng.Float32()
	}
	w := &Tensor{
		Packed: packed,
		Rows:   rows, Cols: cols,
		KBlock: kblock,
		Kind:   dtype.S4FullRange,
		Scales: scales,
	}
	dst := make([]float32, rows*cols)
	if err := Dequantize(w, dst, make([]int8, w.TmpLen())); err != nil {
		t.Fatal(err)
	}
	want := make([]float32, rows*cols)
	err := ref.DecompressKBlockS4FP(packed, want, rows, cols, cols, cols,
		scales, nil, 0, kblock, cols, 1, dtype.S4FullRange)
	if err != nil {
		t.Fatal(err)
	}
	for i := range dst {
		if dst[i] != want[i] {
			t.Fatalf("element %d: got %v, want %v", i, dst[i], want[i])
		}
	}
}
