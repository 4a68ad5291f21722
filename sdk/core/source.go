// Copyright 2025 Zintix Labs
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

package core

import r2 "math/rand/v2"

// Source 將 Engine 包成 math/rand/v2 的 Source，
// 讓 gonum distuv 等第三方分佈可以直接從同一個引擎取亂數。
//
// RANMAR 每次只有 24 bits 有效，因此一個 Uint64 由三次 Flat 組成。
type Source struct {
	e Engine
}

var _ r2.Source = (*Source)(nil)

// NewSource 建立 Engine 的 Source 轉接器。
func NewSource(e Engine) *Source {
	return &Source{e: e}
}

// Uint64 由三段 24 bits 拼出 64 bits（最後一段只取高 16 bits）。
func (s *Source) Uint64() uint64 {
	a := uint64(s.e.Flat() * (1 << 24))
	b := uint64(s.e.Flat() * (1 << 24))
	c := uint64(s.e.Flat() * (1 << 24))
	return a<<40 | b<<16 | c>>8
}

// Rand 回傳以此 Source 驅動的 *rand.Rand。
func (s *Source) Rand() *r2.Rand {
	return r2.New(s)
}
