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
	"github.com/quantkernel/go-bestla/btl"
	"github.com/quantkernel/go-bestla/dtype"
	"github.com/quantkernel/go-bestla/kernel/ref"
)

// QuantizeFPU8ColBlock quantizes rows to unsigned 8-bit codes with one
// scale and zero point per blocksize columns. The min/max search starts
// from zero so the representable range always includes it. If blkReduce
// is non-nil it receives sum(quantized before zero point) * scale per
// block.
func QuantizeFPU8ColBlock[S dtype.FP](row, col int, src []S, ldSrc int, dst []uint8, ldDst int,
	scales []float32, ldScale int, zps []uint8, blocksize int, blkReduce []float32) error {
	lanes := btl.NumLanes[float32]()
	buf := make([]float32, lanes)
	colblk := col / blocksize * blocksize
	for i := 0; i < row; i++ {
		for j := 0; j < col; j += blocksize {
			blk := blocksize
			if j >= colblk {
				blk = col - j
			}
			base := i*ldSrc + j

			vmax := btl.Set[float32](0)
			vmin := btl.Set[float32](0)
			ij := 0
			for ; ij+lanes <= blk; ij += lanes {
				for k := 0; k < lanes; k++ {
					buf[k] = dtype.ToFloat32(src[base+ij+k])
				}
				v := btl.Load(buf)
				vmax = btl.Max(vmax, v)
				vmin = btl.Min(vmin, v)
			}
			maxval := btl.ReduceMax(vmax)
			minval := btl.ReduceMin(vmin)
			for ; ij < blk; ij++ {
				v := dtype.ToFloat32(src[base+ij])
				if v > maxval {
					maxval = v
				}
				if v < minval {
					minval = v
				}
			}

			scale := (maxval - minval) / 255
			rscale := 1 / scale
			zp := ref.Round((0 - minval) * rscale)
			if zp < 0 {
				zp = 0
			} else if zp > 255 {
				zp = 255
			}
			scales[i*ldScale+j/blocksize] = scale
			zps[i*ldScale+j/blocksize] = uint8(zp)

			sum := 0
			vrscale := btl.Set(rscale)
			ij = 0
			for ; ij+lanes <= blk; ij += lanes {
				for k := 0; k < lanes; k++ {
					buf[k] = dtype.ToFloat32(src[base+ij+k])
				}
				r := btl.Round(btl.Mul(btl.Load(buf), vrscale))
				btl.Store(r, buf)
				for k := 0; k < lanes; k++ {
					q := int(buf[k])
					sum += q
					dst[i*ldDst+j+ij+k] = clampU8(q + zp)
				}
			}
			for ; ij < blk; ij++ {
				q := ref.Round(dtype.ToFloat32(src[base+ij]) * rscale)
				sum += q
				dst[i*ldDst+j+ij] = clampU8(q + zp)
			}
			if blkReduce != nil {
				blkReduce[i*ldScale+j/blocksize] = float32(sum) * scale
			}
		}
	}
	return nil
}

func clampU8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// ColBlockReduceSum writes per-block sums of each row.
func ColBlockReduceSum(src []float32, ldSrc, row, col, blocksize int, reduce []float32, ldr int) error {
	lanes := btl.NumLanes[float32]()
	for i := 0; i < row; i++ {
		for j := 0; j < col; j += blocksize {
			blk := blocksize
			if j+blk > col {
				blk = col - j
			}
			base := i*ldSrc + j
			acc := btl.Zero[float32]()
			jj := 0
			for ; jj+lanes <= blk; jj += lanes {
				acc = btl.Add(acc, btl.Load(src[base+jj:base+jj+lanes]))
			}
			sum := btl.ReduceSum(acc)
			for ; jj < blk; jj++ {
				sum += src[base+jj]
			}
			reduce[i*ldr+j/blocksize] = sum
		}
	}
	return nil
}
