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

type GaussParams struct {
	Mean   float64
	StdDev float64
}

func DefaultGaussParams() GaussParams { return GaussParams{Mean: 0, StdDev: 1} }

// normalCache 保存極座標法成對產生的第二個值。
type normalCache struct {
	next    float64
	hasNext bool
}

// normal 回傳標準常態值：有暫存時直接取用，否則產生一對，回傳 v2*fac 並暫存 v1*fac。
func normal(e core.Engine, c *normalCache) float64 {
	if c.hasNext {
		c.hasNext = false
		return c.next
	}
	v1, v2, fac := polar(e)
	c.next = v1 * fac
	c.hasNext = true
	return v2 * fac
}

// ShootGauss 一次性取樣，暫存只在本次呼叫內有效，成對的第二個值會被丟棄。
func ShootGauss(e core.Engine, p GaussParams) float64 {
	var c normalCache
	return normal(engineOr(e), &c)*p.StdDev + p.Mean
}

// Gauss 常態分佈取樣器，連續兩次取樣共用一次極座標運算。
type Gauss struct {
	e     core.Engine
	p     GaussParams
	cache normalCache
}

func NewGauss(e core.Engine, p GaussParams) *Gauss {
	return &Gauss{e: engineOr(e), p: p}
}

func (g *Gauss) Params() GaussParams { return g.p }

// Normal 回傳標準常態值 N(0,1)。
func (g *Gauss) Normal() float64 { return normal(g.e, &g.cache) }

func (g *Gauss) Fire() float64 { return g.FireWith(g.p) }

func (g *Gauss) FireWith(p GaussParams) float64 {
	return normal(g.e, &g.cache)*p.StdDev + p.Mean
}

func (g *Gauss) FireArray(n int) []float64 { return Fill(g, n) }

// Reset 丟棄暫存的成對值。
func (g *Gauss) Reset() { g.cache = normalCache{} }
