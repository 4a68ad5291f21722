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

package stats

import (
	"math"

	"github.com/zintix-labs/ranlab/sdk/dist"
	"gonum.org/v1/gonum/stat/distuv"
)

// Reference 理論分佈。gonum distuv 的各分佈都滿足此介面。
type Reference interface {
	CDF(x float64) float64
	Mean() float64
	Variance() float64
}

// TheoryReport 與理論分佈的比較。
//
// Mean / Variance 在理論值不存在（例如 Cauchy）時為 nil。
// KS 為單樣本 Kolmogorov–Smirnov，p 值用漸近分佈，離散分佈時偏保守。
type TheoryReport struct {
	Reference string   `json:"Reference"`
	Mean      *float64 `json:"Mean,omitempty"`
	Variance  *float64 `json:"Variance,omitempty"`
	KSD       float64  `json:"KSD"`
	KSPValue  float64  `json:"KSPValue"`
}

// Theory 回傳分佈名稱與參數對應的理論分佈。
// 參數超出理論分佈定義域、或沒有封閉形式（BreitWignerM2）時回傳 ok=false。
func Theory(name string, params map[string]float64) (ref Reference, label string, ok bool) {
	canon, p, err := dist.Resolve(name, params)
	if err != nil {
		return nil, "", false
	}
	switch canon {
	case dist.NameFlat:
		if p["a"] < p["b"] {
			return distuv.Uniform{Min: p["a"], Max: p["b"]}, "Uniform", true
		}
	case dist.NameBit:
		return distuv.Bernoulli{P: 0.5}, "Bernoulli", true
	case dist.NameGauss:
		if p["stdDev"] > 0 {
			return distuv.Normal{Mu: p["mean"], Sigma: p["stdDev"]}, "Normal", true
		}
	case dist.NameExponential:
		if p["mean"] > 0 {
			return distuv.Exponential{Rate: 1 / p["mean"]}, "Exponential", true
		}
	case dist.NameGamma:
		if p["k"] > 0 && p["lambda"] > 0 {
			return distuv.Gamma{Alpha: p["k"], Beta: p["lambda"]}, "Gamma", true
		}
	case dist.NamePoisson:
		if p["mean"] > 0 {
			return distuv.Poisson{Lambda: p["mean"]}, "Poisson", true
		}
	case dist.NameChiSquare:
		if p["a"] >= 1 {
			return distuv.ChiSquared{K: p["a"]}, "ChiSquared", true
		}
	case dist.NameStudentT:
		if p["a"] > 0 {
			return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: p["a"]}, "StudentsT", true
		}
	case dist.NameBinomial:
		if p["n"] >= 1 && p["p"] > 0 && p["p"] < 1 {
			return distuv.Binomial{N: p["n"], P: p["p"]}, "Binomial", true
		}
	case dist.NameBreitWigner:
		if p["gamma"] <= 0 {
			return nil, "", false
		}
		c := cauchy{loc: p["mean"], scale: p["gamma"] / 2}
		if cut, has := p["cut"]; has {
			if cut == 0 {
				return nil, "", false
			}
			c.cut = math.Abs(cut)
			return c, "TruncatedCauchy", true
		}
		return c, "Cauchy", true
	}
	return nil, "", false
}

// CompareTheory 以已排序樣本對照理論分佈，找不到理論分佈時回傳 nil。
func CompareTheory(name string, params map[string]float64, sorted []float64) *TheoryReport {
	ref, label, ok := Theory(name, params)
	if !ok || len(sorted) == 0 {
		return nil
	}
	r := &TheoryReport{Reference: label}
	if m := ref.Mean(); !math.IsNaN(m) && !math.IsInf(m, 0) {
		r.Mean = &m
	}
	if v := ref.Variance(); !math.IsNaN(v) && !math.IsInf(v, 0) {
		r.Variance = &v
	}
	r.KSD = KSDistance(sorted, ref)
	r.KSPValue = KSPValue(r.KSD, len(sorted))
	return r
}

// KSDistance 計算已排序樣本的經驗 CDF 與 ref.CDF 的最大距離。
//
// 每組相同值 v 比較兩個點：v 之後的經驗值對 F(v)，v 之前的經驗值對 F(v-)。
// 左極限用 Nextafter 取得，離散（整數支撐）與連續分佈共用同一套算法。
func KSDistance(sorted []float64, ref Reference) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	fn := float64(n)
	d := 0.0
	for i := 0; i < n; {
		v := sorted[i]
		j := i
		for j < n && sorted[j] == v {
			j++
		}
		before := float64(i) / fn
		after := float64(j) / fn
		d = max(d, math.Abs(after-ref.CDF(v)), math.Abs(before-ref.CDF(math.Nextafter(v, math.Inf(-1)))))
		i = j
	}
	return d
}

// KSPValue Kolmogorov 漸近分佈 Q(λ)，λ 含 Stephens 小樣本修正。
func KSPValue(d float64, n int) float64 {
	if n <= 0 {
		return 1
	}
	sn := math.Sqrt(float64(n))
	lambda := (sn + 0.12 + 0.11/sn) * d
	if lambda < 0.2 {
		return 1
	}
	sum := 0.0
	sign := 1.0
	for k := 1; k <= 100; k++ {
		term := sign * math.Exp(-2*float64(k*k)*lambda*lambda)
		sum += term
		if math.Abs(term) < 1e-12 {
			break
		}
		sign = -sign
	}
	return min(max(2*sum, 0), 1)
}

// cauchy Breit-Wigner 的理論分佈：位置 loc、半寬 scale，cut > 0 時截斷於 loc±cut。
// gonum distuv 沒有 Cauchy，這裡只實作比較所需的 CDF。
type cauchy struct {
	loc, scale, cut float64
}

func (c cauchy) CDF(x float64) float64 {
	z := math.Atan((x - c.loc) / c.scale)
	if c.cut == 0 {
		return 0.5 + z/math.Pi
	}
	zc := math.Atan(c.cut / c.scale)
	switch {
	case z <= -zc:
		return 0
	case z >= zc:
		return 1
	}
	return 0.5 + z/(2*zc)
}

// 截斷時對稱，平均為 loc；未截斷時不存在。
func (c cauchy) Mean() float64 {
	if c.cut == 0 {
		return math.NaN()
	}
	return c.loc
}

func (c cauchy) Variance() float64 {
	if c.cut == 0 {
		return math.Inf(1)
	}
	// 截斷 Cauchy：E[(x-loc)^2] = s^2 * (tan(zc)/zc - 1)，tan(zc) = cut/s
	zc := math.Atan(c.cut / c.scale)
	return c.scale * c.scale * (c.cut/c.scale/zc - 1)
}
