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

package dist

import "github.com/zintix-labs/ranlab/sdk/core"

// FlatParams 均勻分佈區間 [A,B)。
type FlatParams struct {
	A float64
	B float64
}

func DefaultFlatParams() FlatParams { return FlatParams{A: 0, B: 1} }

// ShootFlat 回傳 (B-A)*Flat()+A。A == B 時恆為 A。
func ShootFlat(e core.Engine, p FlatParams) float64 {
	return (p.B-p.A)*engineOr(e).Flat() + p.A
}

// Flat 均勻分佈取樣器。
type Flat struct {
	e core.Engine
	p FlatParams
}

func NewFlat(e core.Engine, p FlatParams) *Flat {
	return &Flat{e: engineOr(e), p: p}
}

func (f *Flat) Params() FlatParams { return f.p }

func (f *Flat) Fire() float64 { return ShootFlat(f.e, f.p) }

func (f *Flat) FireWith(p FlatParams) float64 { return ShootFlat(f.e, p) }

func (f *Flat) FireArray(n int) []float64 { return Fill(f, n) }

// ShootBit 回傳 0 或 1，Flat() > 0.5 時為 1。
func ShootBit(e core.Engine) int {
	if engineOr(e).Flat() > 0.5 {
		return 1
	}
	return 0
}

// Bit 公平硬幣取樣器。
type Bit struct {
	e core.Engine
}

func NewBit(e core.Engine) *Bit {
	return &Bit{e: engineOr(e)}
}

// FireBit 回傳 0 或 1。
func (b *Bit) FireBit() int { return ShootBit(b.e) }

// Fire 以 float64 回傳 FireBit 的結果，滿足 Sampler。
func (b *Bit) Fire() float64 { return float64(ShootBit(b.e)) }

func (b *Bit) FireArray(n int) []float64 { return Fill(b, n) }
