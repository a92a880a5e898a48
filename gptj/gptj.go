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

// Package gptj sizes GPT-J model instances and exposes packed quantized
// weight views that dequantize through the kernel package.
package gptj

import (
	"fmt"

	"github.com/quantkernel/go-bestla/dtype"
	"github.com/quantkernel/go-bestla/kernel"
)

// ModelSize classifies a checkpoint by layer count.
type ModelSize int

const (
	SizeUnknown ModelSize = iota
	Size7B
	Size13B
	Size30B
	Size65B
)

func (s ModelSize) String() string {
	switch s {
	case Size7B:
		return "7B"
	case Size13B:
		return "13B"
	case Size30B:
		return "30B"
	case Size65B:
		return "65B"
	}
	return "unknown"
}

// SizeForLayers maps a transformer layer count to a model size class.
func SizeForLayers(n int) ModelSize {
	switch n {
	case 28:
		return Size7B
	case 40:
		return Size13B
	case 60:
		return Size30B
	case 80:
		return Size65B
	}
	return SizeUnknown
}

// Params holds the GPT-J hyperparameters needed for buffer sizing.
type Params struct {
	Layers int
	Embd   int
	FF     int
	Vocab  int
}

const mb = 1024 * 1024

// Scratch is the per-context working memory budget in bytes.
type Scratch struct {
	Scratch0 uint64
	Scratch1 uint64
	EvalSize uint64
}

// ScratchReq returns the scratch budget for a GPT-J layer count. enlarge
// grows every buffer proportionally for long-context use. Layer counts
// without a known budget are an error.
func ScratchReq(nLayers int, enlarge float64) (Scratch, error) {
	if nLayers != 28 {
		return Scratch{}, fmt.Errorf("gptj: no scratch budget for %d layers", nLayers)
	}
	return Scratch{
		Scratch0: uint64(3072 * mb * enlarge),
		Scratch1: uint64(2048 * mb * enlarge),
		EvalSize: uint64(3072 * mb * enlarge),
	}, nil
}

// Tensor is a packed 4-bit quantized weight with its block metadata. Rows
// is the reduction dimension; scales and zero points are laid out one row
// of Cols entries per kblock of rows.
type Tensor struct {
	Packed     []byte
	Rows, Cols int
	KBlock     int
	Kind       dtype.S4Kind
	Scales     []float32
	ZeroPoints []int8
}

// TmpLen returns the scratch length Dequantize requires.
func (t *Tensor) TmpLen() int {
	return 4 * t.Cols
}

// Dequantize materializes the full-precision weight into dst, which must
// hold Rows*Cols elements. tmp is caller scratch of at least TmpLen bytes.
func Dequantize[D dtype.FP](t *Tensor, dst []D, tmp []int8) error {
	if len(dst) < t.Rows*t.Cols {
		return kernel.ErrShortBuffer
	}
	return kernel.DecompressKBlockS4FP(t.Packed, dst, t.Rows, t.Cols, t.Cols, t.Cols,
		t.Scales, t.ZeroPoints, 0, t.KBlock, t.Cols, 1, t.Kind, tmp)
}
