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
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/zintix-labs/ranlab/hist"
	"github.com/zintix-labs/ranlab/sdk/core"
	"github.com/zintix-labs/ranlab/sdk/dist"
	"gonum.org/v1/gonum/stat/distuv"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestSummarizeKnownValues(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4, 5})
	if s.Count != 5 || s.Mean != 3 || !near(s.Variance, 2.5, 1e-12) {
		t.Fatalf("unexpected summary %+v", s)
	}
	if !near(s.Skewness, 0, 1e-12) || !near(s.ExKurtosis, -1.2, 1e-9) {
		t.Fatalf("skew=%v kurt=%v", s.Skewness, s.ExKurtosis)
	}
	if s.Min != 1 || s.Max != 5 {
		t.Fatalf("min/max %v %v", s.Min, s.Max)
	}

	r := &SampleReport{Summary: s}
	r.Done()
	// t(0.975, 4) = 2.776445, se = sqrt(2.5/5)
	half := 2.776445 * math.Sqrt(0.5)
	if !near(r.Summary.MeanCI.Lo, 3-half, 1e-4) || !near(r.Summary.MeanCI.Hi, 3+half, 1e-4) {
		t.Fatalf("mean CI %+v", r.Summary.MeanCI)
	}
}

func TestSummarizeSmallInputs(t *testing.T) {
	if s := Summarize(nil); s.Count != 0 || s.Mean != 0 {
		t.Fatalf("empty summary %+v", s)
	}
	s := Summarize([]float64{7})
	if s.Mean != 7 || s.Variance != 0 || s.Min != 7 || s.Max != 7 {
		t.Fatalf("single summary %+v", s)
	}
	// 常數資料不產生 NaN
	s = Summarize([]float64{2, 2, 2, 2, 2})
	r := &SampleReport{Summary: s}
	r.Done()
	if _, err := json.Marshal(r); err != nil {
		t.Fatalf("constant data should serialize: %v", err)
	}
}

func TestDoneSanitizesOverflow(t *testing.T) {
	xs := []float64{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64}
	r := &SampleReport{Summary: Summarize(xs)}
	r.Done()
	if _, err := json.Marshal(r); err != nil {
		t.Fatalf("sentinel data should serialize: %v", err)
	}
}

func TestMomentsMatchSummarize(t *testing.T) {
	xs := dist.Fill(dist.NewGamma(core.NewJamesRandom(7), dist.GammaParams{K: 2.5, Lambda: 1}), 5000)
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var m2, m3, m4 float64
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		d := x - mean
		m2 += d * d
		m3 += d * d * d
		m4 += d * d * d * d
		lo, hi = min(lo, x), max(hi, x)
	}
	a := Summarize(xs)
	b := SummaryFromMoments(int64(len(xs)), mean, m2, m3, m4, lo, hi)
	for _, c := range [][3]float64{
		{a.Mean, b.Mean, 1e-12},
		{a.Variance, b.Variance, 1e-9},
		{a.Skewness, b.Skewness, 1e-9},
		{a.ExKurtosis, b.ExKurtosis, 1e-8},
	} {
		if !near(c[0], c[1], c[2]*math.Max(1, math.Abs(c[0]))) {
			t.Fatalf("moment mismatch: summarize=%v moments=%v", c[0], c[1])
		}
	}
	if a.Min != b.Min || a.Max != b.Max {
		t.Fatalf("min/max mismatch")
	}
}

func TestProportionCICP(t *testing.T) {
	hat, ci := proportionCICP(0, 10, 0.95)
	if hat != 0 || ci.Lo != 0 || !near(ci.Hi, 1-math.Pow(0.025, 0.1), 1e-6) {
		t.Fatalf("k=0: hat=%v ci=%+v", hat, ci)
	}
	hat, ci = proportionCICP(10, 10, 0.95)
	if hat != 1 || ci.Hi != 1 || !near(ci.Lo, math.Pow(0.025, 0.1), 1e-6) {
		t.Fatalf("k=n: hat=%v ci=%+v", hat, ci)
	}
	_, ci = proportionCICP(50, 100, 0.95)
	if !(ci.Lo < 0.5 && ci.Hi > 0.5) || !near(ci.Lo+ci.Hi, 1, 1e-9) {
		t.Fatalf("symmetric case ci=%+v", ci)
	}
}

func TestQuantiles(t *testing.T) {
	xs := make([]float64, 1000)
	for i := range xs {
		xs[i] = float64(i + 1)
	}
	q := Quantiles(xs, 500.5)
	if q.Median.Hat != 500 {
		t.Fatalf("median %v", q.Median.Hat)
	}
	if !(q.Median.CI.Lo <= 500 && q.Median.CI.Hi >= 500) {
		t.Fatalf("median CI %+v", q.Median.CI)
	}
	if q.P01.Hat != 10 || q.P99.Hat != 990 {
		t.Fatalf("p01=%v p99=%v", q.P01.Hat, q.P99.Hat)
	}
	if q.BelowMean.Hat != 0.5 {
		t.Fatalf("below mean %v", q.BelowMean.Hat)
	}
	if Quantiles(nil, 0) != nil {
		t.Fatalf("empty input should give nil")
	}
}

func TestKSDistance(t *testing.T) {
	u := distuv.Uniform{Min: 0, Max: 1}
	if d := KSDistance([]float64{0.5}, u); !near(d, 0.5, 1e-15) {
		t.Fatalf("single point D=%v", d)
	}
	b := distuv.Bernoulli{P: 0.5}
	if d := KSDistance([]float64{0, 0, 1, 1}, b); !near(d, 0, 1e-15) {
		t.Fatalf("exact bernoulli D=%v", d)
	}
	if d := KSDistance([]float64{1, 1, 1, 1}, b); !near(d, 0.5, 1e-15) {
		t.Fatalf("all ones D=%v", d)
	}
	if p := KSPValue(0, 100); p != 1 {
		t.Fatalf("zero distance p=%v", p)
	}
	if p := KSPValue(0.1, 1000); p > 1e-6 {
		t.Fatalf("large distance p=%v", p)
	}
}

func TestTheoryAgreesWithSamplers(t *testing.T) {
	const n = 20000
	cases := []struct {
		name   string
		params map[string]float64
		label  string
	}{
		{dist.NameGauss, map[string]float64{"mean": 0, "stdDev": 1}, "Normal"},
		{dist.NameExponential, map[string]float64{"mean": 2}, "Exponential"},
		{dist.NamePoisson, map[string]float64{"mean": 4}, "Poisson"},
		{dist.NameBinomial, map[string]float64{"n": 20, "p": 0.3}, "Binomial"},
		{dist.NameFlat, map[string]float64{"a": -1, "b": 1}, "Uniform"},
		{dist.NameBreitWigner, map[string]float64{"mean": 1, "gamma": 0.2}, "Cauchy"},
		{dist.NameBreitWigner, map[string]float64{"mean": 1, "gamma": 0.2, "cut": 0.3}, "TruncatedCauchy"},
	}
	for _, c := range cases {
		s, err := dist.New(c.name, core.NewJamesRandom(2024), c.params)
		if err != nil {
			t.Fatalf("[%s] new: %v", c.name, err)
		}
		xs := dist.Fill(s, n)
		sort.Float64s(xs)
		tr := CompareTheory(c.name, c.params, xs)
		if tr == nil || tr.Reference != c.label {
			t.Fatalf("[%s] unexpected theory %+v", c.name, tr)
		}
		if tr.KSPValue < 0.01 {
			t.Errorf("[%s] KS rejects sampler: D=%v p=%v", c.name, tr.KSD, tr.KSPValue)
		}
	}

	// 平均偏移 0.1 的常態必須被拒絕
	xs := dist.Fill(dist.NewGauss(core.NewJamesRandom(2024), dist.GaussParams{Mean: 0.1, StdDev: 1}), n)
	sort.Float64s(xs)
	tr := CompareTheory(dist.NameGauss, nil, xs)
	if tr.KSPValue > 1e-6 {
		t.Fatalf("shifted normal not rejected: D=%v p=%v", tr.KSD, tr.KSPValue)
	}
}

func TestTheoryMoments(t *testing.T) {
	tr := CompareTheory(dist.NameBreitWigner, nil, []float64{1})
	if tr.Mean != nil || tr.Variance != nil {
		t.Fatalf("cauchy has no moments")
	}
	tr = CompareTheory(dist.NameBreitWigner, map[string]float64{"cut": 0.1, "gamma": 0.2}, []float64{1})
	// cut = scale，tan(zc) = 1，zc = π/4
	want := 0.01 * (4/math.Pi - 1)
	if tr.Mean == nil || *tr.Mean != 1 || tr.Variance == nil || !near(*tr.Variance, want, 1e-12) {
		t.Fatalf("truncated cauchy moments %+v", tr)
	}
	tr = CompareTheory(dist.NameGamma, map[string]float64{"k": 2, "lambda": 4}, []float64{1})
	if !near(*tr.Mean, 0.5, 1e-12) || !near(*tr.Variance, 0.125, 1e-12) {
		t.Fatalf("gamma moments %v %v", *tr.Mean, *tr.Variance)
	}
	if _, _, ok := Theory(dist.NameBreitWignerM2, nil); ok {
		t.Fatalf("BreitWignerM2 has no reference")
	}
	if _, _, ok := Theory(dist.NameGamma, map[string]float64{"k": -1}); ok {
		t.Fatalf("invalid params should have no reference")
	}
}

func TestHistReport(t *testing.T) {
	h, _ := hist.New("h", "", 4, 0, 4)
	h.FillN([]float64{0.5, 1.5, 1.5, 2.5, 2.5, 2.5, 3.5, 9})
	r := NewHistReport(h)
	if len(r.Frac) != 4 || r.Frac[2].Hat != 3.0/8 {
		t.Fatalf("frac %+v", r.Frac)
	}
	// 加權平均只算範圍內：(0.5+3+7.5+3.5)/7
	if !near(r.Mean, 14.5/7, 1e-12) {
		t.Fatalf("binned mean %v", r.Mean)
	}
}

func TestRenderers(t *testing.T) {
	xs := dist.Fill(dist.NewGauss(core.NewJamesRandom(1), dist.DefaultGaussParams()), 2000)
	r := NewSampleReport(dist.NameGauss, map[string]float64{"mean": 0, "stdDev": 1}, xs)
	h, _ := hist.New("gauss", "", 10, -3, 3)
	h.FillN(xs)
	r.Hist = NewHistReport(h)
	r.Summary.Engine = "ranmar"

	var jb bytes.Buffer
	if err := r.WriteWith(&jb, &JsonSampleReportRender{}); err != nil {
		t.Fatalf("json: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(jb.Bytes(), &back); err != nil {
		t.Fatalf("json output not valid: %v", err)
	}
	for _, k := range []string{"Summary", "Quantiles", "Theory", "Hist"} {
		if _, ok := back[k]; !ok {
			t.Fatalf("json missing %s", k)
		}
	}

	var yb bytes.Buffer
	if err := r.WriteWith(&yb, &YAMLSampleReportRender{}); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(yb.String(), "freq: [") {
		t.Fatalf("histogram frequencies should be flow style:\n%s", yb.String())
	}

	var tb bytes.Buffer
	if err := r.WriteWith(&tb, &TableSampleReportRender{BarWidth: 20}); err != nil {
		t.Fatalf("table: %v", err)
	}
	if !strings.Contains(tb.String(), "Mean 95% CI") || !strings.Contains(tb.String(), "KS D / p") {
		t.Fatalf("table missing rows:\n%s", tb.String())
	}
}

func TestEstimateBatches(t *testing.T) {
	e := core.NewJamesRandom(31)
	s := dist.NewExponential(e, dist.ExponentialParams{Mean: 1})
	reps := make([]*SampleReport, 100)
	for i := range reps {
		reps[i] = NewSampleReport(dist.NameExponential, map[string]float64{"mean": 1}, dist.Fill(s, 400))
	}
	b := EstimateBatches(reps)
	if b.Batches != 100 || b.BatchSize != 400 {
		t.Fatalf("batches %d size %d", b.Batches, b.BatchSize)
	}
	if b.ExpectedStd == nil || !near(*b.ExpectedStd, 0.05, 1e-12) {
		t.Fatalf("expected std %v", b.ExpectedStd)
	}
	if r := b.StdOfMeans / *b.ExpectedStd; r < 0.7 || r > 1.3 {
		t.Fatalf("std of means %v vs %v", b.StdOfMeans, *b.ExpectedStd)
	}
	if b.Coverage == nil || b.Coverage.Hat < 0.85 {
		t.Fatalf("coverage %+v", b.Coverage)
	}
	if !(b.P05.Hat <= b.Median.Hat && b.Median.Hat <= b.P95.Hat) {
		t.Fatalf("batch quantiles out of order")
	}

	var buf bytes.Buffer
	if err := b.WriteTable(&buf, "exp"); err != nil {
		t.Fatalf("table: %v", err)
	}
	if !strings.Contains(buf.String(), "CI Coverage") {
		t.Fatalf("table missing coverage:\n%s", buf.String())
	}

	if empty := EstimateBatches(nil); empty.Batches != 0 || empty.Coverage != nil {
		t.Fatalf("empty batches %+v", empty)
	}
}
