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

import "os"

// DispatchLevel identifies the widest instruction set selected at init.
// Every level satisfies the same kernel contract; levels differ only in
// vector width and therefore in loop trip counts.
type DispatchLevel int

const (
	DispatchScalar DispatchLevel = iota
	DispatchSSE2
	DispatchNEON
	DispatchAVX2
	DispatchAVX512
)

var (
	currentLevel DispatchLevel
	currentWidth int // register width in bytes
	currentName  string
)

// CurrentLevel returns the dispatch level selected at startup.
func CurrentLevel() DispatchLevel { return currentLevel }

// CurrentWidth returns the vector register width in bytes.
func CurrentWidth() int { return currentWidth }

// CurrentName returns a human-readable name for the selected level.
func CurrentName() string { return currentName }

// NoSimdEnv reports whether BTL_NO_SIMD is set, forcing scalar mode.
func NoSimdEnv() bool {
	return os.Getenv("BTL_NO_SIMD") != ""
}

func setScalarMode() {
	currentLevel = DispatchScalar
	currentWidth = 16 // 16-byte vectors even in scalar mode for consistency
	currentName = "scalar"
}
