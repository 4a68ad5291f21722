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

// Scripted 依序回放預先給定的數值，用於驗證取樣演算法的精確行為。
// 數值用完後從頭循環。
type Scripted struct {
	vals  []float64
	pos   int
	calls int
}

// NewScripted 建立回放引擎。vals 不可為空，且每個值需在 (0,1)。
func NewScripted(vals ...float64) *Scripted {
	if len(vals) == 0 {
		vals = []float64{0.5}
	}
	return &Scripted{vals: vals}
}

func (s *Scripted) Flat() float64 {
	v := s.vals[s.pos]
	s.pos = (s.pos + 1) % len(s.vals)
	s.calls++
	return v
}

func (s *Scripted) FlatArray(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	fill(s, out)
	return out
}

func (s *Scripted) FillFlat(dst []float64) { fill(s, dst) }

// SetSeed 只重設回放位置。
func (s *Scripted) SetSeed(int64) {
	s.pos = 0
	s.calls = 0
}

func (s *Scripted) Seed() int64  { return 0 }
func (s *Scripted) Name() string { return "scripted" }

// Calls 回傳 Flat 被呼叫的次數。
func (s *Scripted) Calls() int { return s.calls }
