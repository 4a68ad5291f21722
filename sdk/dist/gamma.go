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

// GammaParams 形狀 K 與速率 Lambda，結果為 Gamma(K,1)/Lambda。
type GammaParams struct {
	K      float64
	Lambda float64
}

func DefaultGammaParams() GammaParams { return GammaParams{K: 1, Lambda: 1} }

// Ahrens-Dieter 常數
const (
	gq1 = 0.0416666664
	gq2 = 0.0208333723
	gq3 = 0.0079849875
	gq4 = 0.0015746717
	gq5 = -0.0003349403
	gq6 = 0.0003340332
	gq7 = 0.0006053049
	gq8 = -0.0004701849
	gq9 = 0.0001710320

	ga1 = 0.333333333
	ga2 = -0.249999949
	ga3 = 0.199999867
	ga4 = -0.166677482
	ga5 = 0.142873973
	ga6 = -0.124385581
	ga7 = 0.110368310
	ga8 = -0.112750886
	ga9 = 0.104089866

	ge1 = 1.000000000
	ge2 = 0.499999994
	ge3 = 0.166666848
	ge4 = 0.041664508
	ge5 = 0.008345522
	ge6 = 0.001353826
	ge7 = 0.000247453
)

// gammaSetup 為 gd 演算法的預處理暫存。
// step1 (s, ss, d) 與 step4 (q0, b, si, c) 分別以 k 為鍵。
type gammaSetup struct {
	k1, k4 float64
	ok1    bool
	ok4    bool

	s, ss, d float64

	q0, b, si, c float64
}

// gamma 為 gs (k<1) 與 gd (k>=1) 的共用本體。
func gamma(e core.Engine, p GammaParams, st *gammaSetup) float64 {
	k, lambda := p.K, p.Lambda
	if k <= 0 || lambda <= 0 {
		return Invalid
	}

	if k < 1.0 {
		// gs：接受/拒絕
		b := 1.0 + 0.36788794412*k
		for {
			pp := b * e.Flat()
			if pp <= 1.0 {
				gds := math.Exp(math.Log(pp) / k)
				if math.Log(e.Flat()) <= -gds {
					return gds / lambda
				}
			} else {
				gds := -math.Log((b - pp) / k)
				if math.Log(e.Flat()) <= (k-1.0)*math.Log(gds) {
					return gds / lambda
				}
			}
		}
	}

	// gd：接受補集法
	if !st.ok1 || st.k1 != k {
		st.k1 = k
		st.ok1 = true
		st.ss = k - 0.5
		st.s = math.Sqrt(st.ss)
		st.d = 5.656854249 - 12.0*st.s
	}
	s, ss := st.s, st.ss

	v1, _, fac := polar(e)
	t := v1 * fac
	x := s + 0.5*t
	gds := x * x
	if t >= 0.0 {
		return gds / lambda
	}

	u := e.Flat()
	if st.d*u <= t*t*t {
		return gds / lambda
	}

	if !st.ok4 || st.k4 != k {
		st.k4 = k
		st.ok4 = true
		r := 1.0 / k
		st.q0 = ((((((((gq9*r+gq8)*r+gq7)*r+gq6)*r+gq5)*r+gq4)*r+gq3)*r+gq2)*r + gq1) * r
		switch {
		case k > 13.022:
			st.b = 1.77
			st.si = 0.75
			st.c = 0.1515 / s
		case k > 3.686:
			st.b = 1.654 + 0.0076*ss
			st.si = 1.68/s + 0.275
			st.c = 0.062/s + 0.024
		default:
			st.b = 0.463 + s - 0.178*ss
			st.si = 1.235
			st.c = 0.195/s - 0.079 + 0.016*s
		}
	}
	q0, b, si, c := st.q0, st.b, st.si, st.c

	if x > 0.0 {
		q := gammaQ(q0, s, ss, t)
		if math.Log(1.0-u) <= q {
			return gds / lambda
		}
	}

	// 雙指數分佈的 hat
	for {
		var ee, signU float64
		for {
			ee = -math.Log(e.Flat())
			u = e.Flat()
			u = u + u - 1.0
			if u > 0 {
				signU = 1.0
			} else {
				signU = -1.0
			}
			t = b + (ee*si)*signU
			if t > -0.71874483771719 {
				break
			}
		}
		q := gammaQ(q0, s, ss, t)
		if q <= 0.0 {
			continue
		}
		var w float64
		if q > 0.5 {
			w = math.Exp(q) - 1.0
		} else {
			w = ((((((ge7*q+ge6)*q+ge5)*q+ge4)*q+ge3)*q+ge2)*q + ge1) * q
		}
		if c*u*signU <= w*math.Exp(ee-0.5*t*t) {
			x = s + 0.5*t
			return x * x / lambda
		}
	}
}

// gammaQ 計算 q(t)。|v| <= 0.25 時改用多項式避免 log(1+v) 的消去誤差。
func gammaQ(q0, s, ss, t float64) float64 {
	v := t / (s + s)
	if math.Abs(v) > 0.25 {
		return q0 - s*t + 0.25*t*t + (ss+ss)*math.Log(1.0+v)
	}
	return q0 + 0.5*t*t*((((((((ga9*v+ga8)*v+ga7)*v+ga6)*v+ga5)*v+ga4)*v+ga3)*v+ga2)*v+ga1)*v
}

// ShootGamma 一次性取樣。k <= 0 或 lambda <= 0 回傳 Invalid。
func ShootGamma(e core.Engine, p GammaParams) float64 {
	var st gammaSetup
	return gamma(engineOr(e), p, &st)
}

// Gamma 取樣器，持有以 k 為鍵的預處理暫存。
type Gamma struct {
	e  core.Engine
	p  GammaParams
	st gammaSetup
}

func NewGamma(e core.Engine, p GammaParams) *Gamma {
	return &Gamma{e: engineOr(e), p: p}
}

func (g *Gamma) Params() GammaParams { return g.p }

func (g *Gamma) Fire() float64 { return gamma(g.e, g.p, &g.st) }

func (g *Gamma) FireWith(p GammaParams) float64 { return gamma(g.e, p, &g.st) }

func (g *Gamma) FireArray(n int) []float64 { return Fill(g, n) }
