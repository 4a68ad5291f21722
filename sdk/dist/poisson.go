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

// DefaultPoissonMeanMax 高於此平均值時改用常態近似。
const DefaultPoissonMeanMax = 2.0e9

// poissonSmallMean 低於此平均值使用乘積法。
const poissonSmallMean = 12.0

type PoissonParams struct {
	Mean float64
}

func DefaultPoissonParams() PoissonParams { return PoissonParams{Mean: 1} }

// poissonSetup 以 mean 為鍵的暫存。乘積法只用到 g1 = exp(-mean)。
type poissonSetup struct {
	mean float64
	ok   bool
	sq   float64
	alxm float64
	g1   float64
}

// poisson 依平均值分三段：
//   - mean < 12：連乘均勻亂數直到乘積 <= exp(-mean)。
//   - 12 <= mean < meanMax：以 Lorentzian 為提案分佈的拒絕法 (Numerical Recipes)。
//   - mean >= meanMax：常態近似 mean + sqrt(mean)*N(0,1)。
//
// mean == -1 直接回傳 0。回傳值恆為整數。
func poisson(e core.Engine, mean, meanMax float64, st *poissonSetup) float64 {
	if mean == -1 {
		return 0
	}
	var em float64
	switch {
	case mean < poissonSmallMean:
		if !st.ok || st.mean != mean {
			st.mean = mean
			st.ok = true
			st.g1 = math.Exp(-mean)
		}
		em = -1
		t := 1.0
		for {
			em += 1.0
			t *= e.Flat()
			if t <= st.g1 {
				break
			}
		}
	case mean < meanMax:
		if !st.ok || st.mean != mean {
			st.mean = mean
			st.ok = true
			st.sq = math.Sqrt(2.0 * mean)
			st.alxm = math.Log(mean)
			st.g1 = mean*st.alxm - Gammln(mean+1.0)
		}
		for {
			var y float64
			for {
				y = math.Tan(math.Pi * e.Flat())
				em = st.sq*y + mean
				if em >= 0.0 {
					break
				}
			}
			em = math.Floor(em)
			t := 0.9 * (1.0 + y*y) * math.Exp(em*st.alxm-Gammln(em+1.0)-st.g1)
			if e.Flat() <= t {
				break
			}
		}
	default:
		_, v2, fac := polar(e)
		em = mean + math.Sqrt(mean)*v2*fac
		if math.Trunc(em) < 0 {
			if math.Trunc(mean) >= 0 {
				em = mean
			} else {
				em = meanMax
			}
		}
	}
	return math.Trunc(em)
}

// ShootPoisson 一次性取樣，使用預設的 meanMax。
func ShootPoisson(e core.Engine, p PoissonParams) float64 {
	var st poissonSetup
	return poisson(engineOr(e), p.Mean, DefaultPoissonMeanMax, &st)
}

// Poisson 取樣器。meanMax 可以逐實例調整。
type Poisson struct {
	e       core.Engine
	p       PoissonParams
	meanMax float64
	st      poissonSetup
}

func NewPoisson(e core.Engine, p PoissonParams) *Poisson {
	return &Poisson{e: engineOr(e), p: p, meanMax: DefaultPoissonMeanMax}
}

func (s *Poisson) Params() PoissonParams { return s.p }

// MeanMax 回傳目前的常態近似門檻。
func (s *Poisson) MeanMax() float64 { return s.meanMax }

// SetMeanMax 調整常態近似門檻，非正值忽略。門檻改變時清除暫存。
func (s *Poisson) SetMeanMax(m float64) {
	if m <= 0 || m == s.meanMax {
		return
	}
	s.meanMax = m
	s.st = poissonSetup{}
}

func (s *Poisson) Fire() float64 { return poisson(s.e, s.p.Mean, s.meanMax, &s.st) }

func (s *Poisson) FireWith(p PoissonParams) float64 {
	return poisson(s.e, p.Mean, s.meanMax, &s.st)
}

func (s *Poisson) FireArray(n int) []float64 { return Fill(s, n) }
