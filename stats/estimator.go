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
	"sort"

	"github.com/zintix-labs/ranlab/hist"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 結構宣告 **
// ============================================================

// PointStat 點估計 回傳 估計值 以及信賴區間
type PointStat struct {
	Hat float64
	CI  CI
}

// QuantileReport 分位數敘事：各分位點的點估計與 95% CI
type QuantileReport struct {
	P01    PointStat
	P05    PointStat
	P25    PointStat
	Median PointStat
	P75    PointStat
	P95    PointStat
	P99    PointStat
	// 小於等於樣本平均的比例，偏態分佈會明顯偏離 0.5
	BelowMean PointStat
}

// HistReport 直方圖敘事：每個分箱的比例（Clopper–Pearson CI）與分箱後的加權矩
type HistReport struct {
	H1      *hist.H1    `json:"H1"`
	Centers []float64   `json:"Centers"`
	Frac    []PointStat `json:"Frac"`
	Mean    float64     `json:"Mean"`
	Std     float64     `json:"Std"`
}

// BatchReport 批次敘事：多個獨立批次的平均值分佈
//
// ExpectedStd 與 Coverage 需要理論分佈有有限的平均與變異數，否則為 nil。
type BatchReport struct {
	Batches     int
	BatchSize   int64
	MeanOfMeans float64
	StdOfMeans  float64
	ExpectedStd *float64   `json:",omitempty"` // 理論標準誤 sqrt(Var/n)
	P05         PointStat  // 批次平均的分位數
	Median      PointStat
	P95         PointStat
	Coverage    *PointStat `json:",omitempty"` // 批次 95% CI 涵蓋理論平均的比例
}

// ============================================================
// ** 對外 **
// ============================================================

// EstimateBatches 批次評估
//
// 1. 平均敘事 : 批次平均的分位數，以及與理論標準誤的比較
//
// 2. 覆蓋敘事 : 每個批次的 95% 平均信賴區間涵蓋理論平均的比例（理想值約 0.95）
func EstimateBatches(reps []*SampleReport) *BatchReport {
	n := len(reps)
	out := &BatchReport{Batches: n}
	if n == 0 {
		return out
	}
	means := make([]float64, n)
	for i, r := range reps {
		r.Done()
		means[i] = r.Summary.Mean
	}
	out.BatchSize = reps[0].Summary.Count
	if n > 1 {
		out.MeanOfMeans, out.StdOfMeans = stat.MeanStdDev(means, nil)
	} else {
		out.MeanOfMeans = means[0]
	}
	out.MeanOfMeans, out.StdOfMeans = finite(out.MeanOfMeans), finite(out.StdOfMeans)

	sorted := append([]float64(nil), means...)
	sort.Float64s(sorted)
	q := Quantiles(sorted, out.MeanOfMeans)
	out.P05, out.Median, out.P95 = q.P05, q.Median, q.P95

	s0 := reps[0].Summary
	tr := CompareTheory(s0.Dist, s0.Params, sorted[:1])
	if tr == nil || tr.Mean == nil || tr.Variance == nil || out.BatchSize < 2 {
		return out
	}
	es := math.Sqrt(*tr.Variance / float64(out.BatchSize))
	out.ExpectedStd = &es
	k := 0
	for _, r := range reps {
		if r.Summary.MeanCI.Lo <= *tr.Mean && *tr.Mean <= r.Summary.MeanCI.Hi {
			k++
		}
	}
	hat, ci := proportionCICP(k, n, confidence)
	out.Coverage = &PointStat{Hat: hat, CI: ci}
	return out
}

// Quantiles 由已排序的樣本計算分位數報告。sorted 為空時回傳 nil。
func Quantiles(sorted []float64, mean float64) *QuantileReport {
	if len(sorted) == 0 {
		return nil
	}
	at := func(q float64) PointStat {
		lo, hi := quantileCI(sorted, q, confidence)
		return PointStat{Hat: quantilePoint(sorted, q), CI: CI{Lo: lo, Hi: hi}}
	}
	below, belowCI := percentileCIForValue(sorted, mean, confidence)
	return &QuantileReport{
		P01:       at(0.01),
		P05:       at(0.05),
		P25:       at(0.25),
		Median:    at(0.5),
		P75:       at(0.75),
		P95:       at(0.95),
		P99:       at(0.99),
		BelowMean: PointStat{Hat: below, CI: belowCI},
	}
}

// NewHistReport 由直方圖建立報告。比例以總筆數（含 underflow/overflow）為分母。
func NewHistReport(h *hist.H1) *HistReport {
	if h == nil {
		return nil
	}
	r := &HistReport{
		H1:      h,
		Centers: h.Centers(),
		Frac:    make([]PointStat, h.NBins),
	}
	n := int(h.Entries())
	for i := range r.Frac {
		k := int(h.Freq[i+1])
		hat, ci := proportionCICP(k, n, confidence)
		r.Frac[i] = PointStat{Hat: hat, CI: ci}
	}
	if h.InRange() > 0 {
		w := h.Freq[1 : h.NBins+1]
		if h.InRange() > 1 {
			r.Mean, r.Std = stat.MeanStdDev(r.Centers, w)
		} else {
			r.Mean = stat.Mean(r.Centers, w)
		}
		r.Mean, r.Std = finite(r.Mean), finite(r.Std)
	}
	return r
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// 給定已排序樣本與門檻 x0，估計 p = P(X ≤ x0) 的點估計與 CI 區間
func percentileCIForValue(sorted []float64, x0 float64, confidence float64) (pHat float64, ci CI) {
	n := len(sorted)
	if n == 0 {
		return 0, CI{Lo: 0, Hi: 0}
	}
	// 已排序，二分找 <= x0 的個數
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if sorted[mid] <= x0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return proportionCICP(lo, n, confidence)
}

// 想估「第 q 分位」的上下界。做法：把 order statistic 的秩視為二項→Beta 反推 p 範圍，再把 p 轉回樣本索引。
// 回傳 (loValue, hiValue)
func quantileCI(sorted []float64, q, confidence float64) (float64, float64) {
	n := len(sorted)
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return sorted[0], sorted[0]
	}

	alpha := 1 - confidence
	k := int(q * float64(n))
	if k < 1 {
		k = 1
	} else if k > n-1 {
		k = n - 1
	}

	// 以 CP 思想反推 p 範圍
	bLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
	bHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
	pLo := bLo.Quantile(alpha / 2)
	pHi := bHi.Quantile(1 - alpha/2)

	li := int(pLo * float64(n))
	ui := int(pHi * float64(n))
	if ui > 0 {
		ui -= 1
	}
	li = min(max(li, 0), n-1)
	ui = min(max(ui, 0), n-1)
	return sorted[li], sorted[ui]
}

// quantilePoint 經驗分位數（gonum Empirical，需已排序）
func quantilePoint(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(q, stat.Empirical, sorted, nil)
}
