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

package ref

import "errors"

// Kernel status outcomes. Every kernel call either succeeds or reports one
// of these; there is no partial success.
var (
	// ErrNotSupport marks a layout or parameter combination the kernel
	// does not implement, such as a strided source or an unimplemented
	// pack-row factor. Callers must fall back or abort.
	ErrNotSupport = errors.New("kernel: layout or parameter combination not supported")

	// ErrShortBuffer reports a caller-supplied scratch buffer smaller than
	// the kernel requires.
	ErrShortBuffer = errors.New("kernel: scratch buffer too small")
)
