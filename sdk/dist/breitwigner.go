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

import (
	"math"

	"github.com/zintix-labs/ranlab/sdk/core"
)

// BreitWignerParams 共振中心 Mean、寬度 Gamma，Cut 為 nil 表示不截斷。
type BreitWignerParams struct {
	Mean  float64
	Gamma float64
	Cut   *float64
}

func DefaultBreitWignerParams() BreitWignerParams {
	return BreitWignerParams{Mean: 1.0, Gamma: 0.2}
}

// WithCut 回傳設定了截斷值的副本。
func (p BreitWignerParams) WithCut(cut float64) BreitWignerParams {
	p.Cut = &cut
	return p
}

// breitWigner 反函數法取 Cauchy 分佈，有 cut 時位移限制在 [-cut, cut]。
func breitWigner(e core.Engine, p BreitWignerParams) float64 {
	if p.Gamma == 0 {
		return p.Mean
	}
	rval := 2.0*e.Flat() - 1.0
	var displ float64
	if p.Cut == nil {
		displ = 0.5 * p.Gamma * math.Tan(rval*math.Pi*0.5)
	} else {
		val := math.Atan(2.0 * *p.Cut / p.Gamma)
		displ = 0.5 * p.Gamma * math.Tan(rval*val)
	}
	return p.Mean + displ
}

// breitWignerM2 以質量平方的 Breit-Wigner 取樣後開根號。
// 角度由 ShootFlat 在 [lower, upper) 取得，根號內的值先下限為 0。
func breitWignerM2(e core.Engine, p BreitWignerParams) float64 {
	if p.Gamma == 0 {
		return p.Mean
	}
	mean, g := p.Mean, p.Gamma
	lower, upper := math.Atan(-mean/g), math.Pi/2
	if p.Cut != nil {
		cut := *p.Cut
		tmp := math.Max(0.0, mean-cut)
		lower = math.Atan((tmp*tmp - mean*mean) / (mean * g))
		upper = math.Atan(((mean+cut)*(mean+cut) - mean*mean) / (mean * g))
	}
	rval := ShootFlat(e, FlatParams{A: lower, B: upper})
	displ := g * math.Tan(rval)
	return math.Sqrt(math.Max(0.0, mean*mean+mean*displ))
}

// ShootBreitWigner 一次性取樣。Gamma == 0 回傳 Mean。
func ShootBreitWigner(e core.Engine, p BreitWignerParams) float64 {
	return breitWigner(engineOr(e), p)
}

// ShootBreitWignerM2 一次性 M² 取樣。
func ShootBreitWignerM2(e core.Engine, p BreitWignerParams) float64 {
	return breitWignerM2(engineOr(e), p)
}

type BreitWigner struct {
	e core.Engine
	p BreitWignerParams
}

func NewBreitWigner(e core.Engine, p BreitWignerParams) *BreitWigner {
	return &BreitWigner{e: engineOr(e), p: p}
}

func (b *BreitWigner) Params() BreitWignerParams { return b.p }

func (b *BreitWigner) Fire() float64 { return breitWigner(b.e, b.p) }

func (b *BreitWigner) FireWith(p BreitWignerParams) float64 { return breitWigner(b.e, p) }

func (b *BreitWigner) FireM2() float64 { return breitWignerM2(b.e, b.p) }

func (b *BreitWigner) FireM2With(p BreitWignerParams) float64 { return breitWignerM2(b.e, p) }

func (b *BreitWigner) FireArray(n int) []float64 { return Fill(b, n) }

// M2 回傳以 FireM2 取樣的 Sampler。
func (b *BreitWigner) M2() Sampler { return breitWignerM2Sampler{b} }

type breitWignerM2Sampler struct{ b *BreitWigner }

func (s breitWignerM2Sampler) Fire() float64 { return s.b.FireM2() }
