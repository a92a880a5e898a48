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

import "github.com/quantkernel/go-bestla/dtype"

// CvtBF16ToFP32 widens a 2D region of bf16 values to float32. The
// conversion is a pure bit shift, so there is no vector arithmetic to
// share with the float path. With zeroPadding the remainder of each
// destination row up to dstStep is cleared.
func CvtBF16ToFP32(src []dtype.BF16, dst []float32, row, col, srcStep, dstStep int, zeroPadding bool) error {
	for i := 0; i < row; i++ {
		so := i * srcStep
		do := i * dstStep
		for j := 0; j < col; j++ {
			dst[do+j] = src[so+j].Float32()
		}
		if zeroPadding {
			clear(dst[do+col : do+dstStep])
		}
	}
	return nil
}

// CvtFP32ToBF16 narrows a 2D region of float32 values to bf16 using
// add-bias-then-truncate rounding, matching hardware convert
// instructions. With zeroPadding the remainder of each destination row
// up to dstStep is cleared.
func CvtFP32ToBF16(src []float32, dst []dtype.BF16, row, col, srcStep, dstStep int, zeroPadding bool) error {
	for i := 0; i < row; i++ {
		so := i * srcStep
		do := i * dstStep
		for j := 0; j < col; j++ {
			dst[do+j] = dtype.BF16FromFloat32(src[so+j])
		}
		if zeroPadding {
			clear(dst[do+col : do+dstStep])
		}
	}
	return nil
}
