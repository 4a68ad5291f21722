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

package recorder

import (
	"fmt"
	"maps"
	"math"

	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/hist"
	"github.com/zintix-labs/ranlab/spec"
	"github.com/zintix-labs/ranlab/stats"
)

// SampleRecorder 取樣紀錄員
//
// SampleRecorder 逐筆紀錄取樣結果，並透過Done輸出統計報表
type SampleRecorder struct {
	Name    string
	Dist    string
	Engine  string
	Seed    int64
	Params  map[string]float64
	Moments *MomentRecord
	Hist    *hist.H1
	NaN     int64

	keep    bool
	samples []float64
}

// MomentRecord 串流中心矩紀錄
//
// M2/M3/M4 為離均差的二、三、四次方和，逐筆更新，不保存原始資料
type MomentRecord struct {
	N    int64
	Mean float64
	M2   float64
	M3   float64
	M4   float64
	Min  float64
	Max  float64
}

// NewSampleRecorder 依設定建立紀錄員。keepSamples 為 true 時另外保存原始樣本，
// Done 會多出分位數與理論比較（記憶體與 n 成正比）。
func NewSampleRecorder(rs *spec.RunSetting, seed int64, keepSamples bool) (*SampleRecorder, error) {
	if rs == nil {
		return nil, errs.NewFatal("sample recorder: nil setting")
	}
	s := &SampleRecorder{
		Name:    rs.Name,
		Dist:    rs.Dist,
		Engine:  rs.Engine,
		Seed:    seed,
		Params:  maps.Clone(rs.Params),
		Moments: newMomentRecord(),
		keep:    keepSamples,
	}
	if h := rs.Hist; h != nil {
		hh, err := hist.New(rs.Name, fmt.Sprintf("%s (%d bins)", rs.Dist, h.Bins), h.Bins, h.Min, h.Max)
		if err != nil {
			return nil, err
		}
		s.Hist = hh
	}
	if keepSamples && rs.N > 0 {
		s.samples = make([]float64, 0, rs.N)
	}
	return s, nil
}

// MergeSampleRecorder 合併多個紀錄員（多核模擬）。
// 分佈、引擎與直方圖設定必須一致；保存的樣本依傳入順序串接。
func MergeSampleRecorder(r []*SampleRecorder) (*SampleRecorder, error) {
	if len(r) == 0 {
		return nil, errs.NewFatal("merge sample record err : empty input")
	}
	r0 := r[0]
	s := &SampleRecorder{
		Name:    r0.Name,
		Dist:    r0.Dist,
		Engine:  r0.Engine,
		Seed:    r0.Seed,
		Params:  maps.Clone(r0.Params),
		Moments: newMomentRecord(),
		keep:    r0.keep,
	}
	if r0.Hist != nil {
		s.Hist = r0.Hist.Clone()
		s.Hist.Reset()
	}
	for _, v := range r {
		if v.Dist != r0.Dist {
			return nil, errs.NewFatal("merge sample record err : different dist")
		}
		if v.Engine != r0.Engine {
			return nil, errs.NewFatal("merge sample record err : different engine")
		}
		if v.keep != r0.keep || (v.Hist == nil) != (r0.Hist == nil) {
			return nil, errs.NewFatal("merge sample record err : different record options")
		}
		s.Moments.merge(v.Moments)
		s.NaN += v.NaN
		if s.Hist != nil {
			if err := s.Hist.Merge(v.Hist); err != nil {
				return nil, errs.Wrap(err, "merge sample record err")
			}
		}
		if s.keep {
			s.samples = append(s.samples, v.samples...)
		}
	}
	return s, nil
}

// Record 紀錄一筆樣本。NaN 只計數，不進統計。
func (s *SampleRecorder) Record(x float64) {
	if math.IsNaN(x) {
		s.NaN++
		return
	}
	s.Moments.add(x)
	if s.Hist != nil {
		s.Hist.Fill(x)
	}
	if s.keep {
		s.samples = append(s.samples, x)
	}
}

// RecordN 依序紀錄多筆樣本。
func (s *SampleRecorder) RecordN(xs []float64) {
	for _, x := range xs {
		s.Record(x)
	}
}

// Count 已紀錄（非 NaN）的筆數。
func (s *SampleRecorder) Count() int64 { return s.Moments.N }

// Samples 回傳保存的原始樣本；未開啟保存時為 nil。
func (s *SampleRecorder) Samples() []float64 { return s.samples }

// Done 輸出統計報表。有保存樣本時以完整樣本計算，否則用串流矩。
func (s *SampleRecorder) Done() *stats.SampleReport {
	var report *stats.SampleReport
	if s.keep {
		report = stats.NewSampleReport(s.Dist, s.Params, s.samples)
	} else {
		m := s.Moments
		report = &stats.SampleReport{
			Summary: stats.SummaryFromMoments(m.N, m.Mean, m.M2, m.M3, m.M4, m.Min, m.Max),
		}
		report.Summary.Dist = s.Dist
		report.Summary.Params = s.Params
	}
	report.Summary.Name = s.Name
	report.Summary.Engine = s.Engine
	report.Summary.Seed = s.Seed
	report.Hist = stats.NewHistReport(s.Hist)
	report.Done()
	return report
}

func newMomentRecord() *MomentRecord {
	return &MomentRecord{Min: math.Inf(1), Max: math.Inf(-1)}
}

// add 單筆更新（Welford 延伸到四階）。
func (m *MomentRecord) add(x float64) {
	n1 := float64(m.N)
	m.N++
	n := float64(m.N)
	delta := x - m.Mean
	deltaN := delta / n
	deltaN2 := deltaN * deltaN
	term1 := delta * deltaN * n1
	m.Mean += deltaN
	m.M4 += term1*deltaN2*(n*n-3*n+3) + 6*deltaN2*m.M2 - 4*deltaN*m.M3
	m.M3 += term1*deltaN*(n-2) - 3*deltaN*m.M2
	m.M2 += term1
	m.Min = math.Min(m.Min, x)
	m.Max = math.Max(m.Max, x)
}

// merge 合併兩組中心矩（兩兩合併公式），o 不會被修改。
func (m *MomentRecord) merge(o *MomentRecord) {
	if o == nil || o.N == 0 {
		return
	}
	if m.N == 0 {
		*m = *o
		return
	}
	na, nb := float64(m.N), float64(o.N)
	n := na + nb
	delta := o.Mean - m.Mean
	d2 := delta * delta
	d3 := d2 * delta
	d4 := d2 * d2

	mean := m.Mean + delta*nb/n
	m2 := m.M2 + o.M2 + d2*na*nb/n
	m3 := m.M3 + o.M3 + d3*na*nb*(na-nb)/(n*n) + 3*delta*(na*o.M2-nb*m.M2)/n
	m4 := m.M4 + o.M4 + d4*na*nb*(na*na-na*nb+nb*nb)/(n*n*n) +
		6*d2*(na*na*o.M2+nb*nb*m.M2)/(n*n) + 4*delta*(na*o.M3-nb*m.M3)/n

	m.N += o.N
	m.Mean, m.M2, m.M3, m.M4 = mean, m2, m3, m4
	m.Min = math.Min(m.Min, o.Min)
	m.Max = math.Max(m.Max, o.Max)
}
