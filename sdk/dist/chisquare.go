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

// ChiSquareParams 自由度 A，A >= 1。
type ChiSquareParams struct {
	A float64
}

func DefaultChiSquareParams() ChiSquareParams { return ChiSquareParams{A: 1} }

// chiSetup 以 a 為鍵保存 b, vm, vd。
type chiSetup struct {
	a  float64
	ok bool
	b  float64
	vm float64
	vd float64
}

// Monahan (1987) 帶位移的均勻比值法。先取 chi 分佈的值再平方。
func chiSquare(e core.Engine, a float64, st *chiSetup) float64 {
	if a < 1 {
		return Invalid
	}

	if a == 1 {
		for {
			u := e.Flat()
			v := e.Flat() * 0.857763884960707
			z := v / u
			if z < 0 {
				continue
			}
			zz := z * z
			r := 2.5 - zz
			if z < 0.0 {
				r += zz * z / (3.0 * z)
			}
			if u < r*0.3894003915 {
				return z * z
			}
			if zz > 1.036961043/u+1.4 {
				continue
			}
			if 2*math.Log(u) < -zz*0.5 {
				return z * z
			}
		}
	}

	if !st.ok || st.a != a {
		st.a = a
		st.ok = true
		st.b = math.Sqrt(a - 1.0)
		vm := -0.6065306597 * (1.0 - 0.25/(st.b*st.b+1.0))
		if -st.b > vm {
			vm = -st.b
		}
		vp := 0.6065306597 * (0.7071067812 + st.b) / (0.5 + st.b)
		st.vm = vm
		st.vd = vp - vm
	}
	b, vm, vd := st.b, st.vm, st.vd

	for {
		u := e.Flat()
		v := e.Flat()*vd + vm
		z := v / u
		if z < -b {
			continue
		}
		zz := z * z
		r := 2.5 - zz
		if z < 0.0 {
			r += zz * z / (3.0 * (z + b))
		}
		if u < r*0.3894003915 {
			return (z + b) * (z + b)
		}
		if zz > 1.036961043/u+1.4 {
			continue
		}
		if 2*math.Log(u) < math.Log(1.0+z/b)*b*b-zz*0.5-z*b {
			return (z + b) * (z + b)
		}
	}
}

// ShootChiSquare 一次性取樣。A < 1 回傳 Invalid。
func ShootChiSquare(e core.Engine, p ChiSquareParams) float64 {
	var st chiSetup
	return chiSquare(engineOr(e), p.A, &st)
}

type ChiSquare struct {
	e  core.Engine
	p  ChiSquareParams
	st chiSetup
}

func NewChiSquare(e core.Engine, p ChiSquareParams) *ChiSquare {
	return &ChiSquare{e: engineOr(e), p: p}
}

func (c *ChiSquare) Params() ChiSquareParams { return c.p }

func (c *ChiSquare) Fire() float64 { return chiSquare(c.e, c.p.A, &c.st) }

func (c *ChiSquare) FireWith(p ChiSquareParams) float64 { return chiSquare(c.e, p.A, &c.st) }

func (c *ChiSquare) FireArray(n int) []float64 { return Fill(c, n) }
