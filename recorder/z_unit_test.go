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
	"math"
	"testing"

	"github.com/zintix-labs/ranlab/sdk/core"
	"github.com/zintix-labs/ranlab/sdk/dist"
	"github.com/zintix-labs/ranlab/spec"
	"github.com/zintix-labs/ranlab/stats"
)

func setting(t *testing.T, doc string) *spec.RunSetting {
	t.Helper()
	rs, err := spec.GetRunSettingByYAML([]byte(doc))
	if err != nil {
		t.Fatalf("setting: %v", err)
	}
	return rs
}

func relNear(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Abs(b))
}

func TestStreamingMatchesBatch(t *testing.T) {
	rs := setting(t, "dist: gamma\nn: 20000\nparams: {k: 2.5, lambda: 1.5}\n")
	xs := dist.Fill(dist.NewGamma(core.NewJamesRandom(11), dist.GammaParams{K: 2.5, Lambda: 1.5}), rs.N)

	r, err := NewSampleRecorder(rs, 11, false)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	r.RecordN(xs)
	got := r.Done().Summary
	want := stats.Summarize(xs)

	if got.Count != want.Count || got.Min != want.Min || got.Max != want.Max {
		t.Fatalf("count/min/max mismatch got=%+v want=%+v", got, want)
	}
	for _, c := range [][2]float64{
		{got.Mean, want.Mean},
		{got.Variance, want.Variance},
		{got.Skewness, want.Skewness},
		{got.ExKurtosis, want.ExKurtosis},
	} {
		if !relNear(c[0], c[1], 1e-8) {
			t.Fatalf("streaming %v vs batch %v", c[0], c[1])
		}
	}
	if got.Dist != "Gamma" || got.Engine != "ranmar" || got.Seed != 11 || got.Name != "gamma" {
		t.Fatalf("metadata not carried: %+v", got)
	}
}

func TestMergeEqualsSingleRun(t *testing.T) {
	rs := setting(t, "dist: gauss\nn: 3000\nparams: {mean: 5, stdDev: 2}\nhist: {bins: 20, min: -5, max: 15}\n")
	xs := dist.Fill(dist.NewGauss(core.NewJamesRandom(3), dist.GaussParams{Mean: 5, StdDev: 2}), rs.N)

	whole, _ := NewSampleRecorder(rs, 3, true)
	whole.RecordN(xs)

	parts := make([]*SampleRecorder, 3)
	for i := range parts {
		parts[i], _ = NewSampleRecorder(rs, 3, true)
		parts[i].RecordN(xs[i*1000 : (i+1)*1000])
	}
	merged, err := MergeSampleRecorder(parts)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	a, b := whole.Moments, merged.Moments
	if a.N != b.N || a.Min != b.Min || a.Max != b.Max {
		t.Fatalf("count/min/max mismatch")
	}
	for _, c := range [][2]float64{{a.Mean, b.Mean}, {a.M2, b.M2}, {a.M3, b.M3}, {a.M4, b.M4}} {
		if !relNear(c[0], c[1], 1e-9) {
			t.Fatalf("merged moment %v vs %v", c[1], c[0])
		}
	}
	ha, hb := whole.Hist.Prepare(), merged.Hist.Prepare()
	for i := range ha {
		if ha[i] != hb[i] {
			t.Fatalf("histogram mismatch at %d", i)
		}
	}
	if len(merged.Samples()) != len(xs) {
		t.Fatalf("kept samples %d", len(merged.Samples()))
	}

	rep := merged.Done()
	if rep.Quantiles == nil || rep.Theory == nil || rep.Hist == nil {
		t.Fatalf("full report expected: %+v", rep)
	}
	if rep.Theory.Reference != "Normal" {
		t.Fatalf("reference %s", rep.Theory.Reference)
	}
}

func TestMergeRejectsMismatch(t *testing.T) {
	a, _ := NewSampleRecorder(setting(t, "dist: flat\n"), 1, false)
	b, _ := NewSampleRecorder(setting(t, "dist: gauss\n"), 1, false)
	if _, err := MergeSampleRecorder([]*SampleRecorder{a, b}); err == nil {
		t.Fatalf("different dist should fail")
	}
	c, _ := NewSampleRecorder(setting(t, "dist: flat\nengine: pcg64\n"), 1, false)
	if _, err := MergeSampleRecorder([]*SampleRecorder{a, c}); err == nil {
		t.Fatalf("different engine should fail")
	}
	if _, err := MergeSampleRecorder(nil); err == nil {
		t.Fatalf("empty merge should fail")
	}
}

func TestNaNAndEmpty(t *testing.T) {
	r, _ := NewSampleRecorder(setting(t, "dist: flat\n"), 1, false)
	rep := r.Done()
	if rep.Summary.Count != 0 || rep.Summary.Min != 0 {
		t.Fatalf("empty report %+v", rep.Summary)
	}
	r.RecordN([]float64{math.NaN(), 1, 3})
	if r.NaN != 1 || r.Count() != 2 || r.Moments.Mean != 2 {
		t.Fatalf("nan handling: nan=%d n=%d mean=%v", r.NaN, r.Count(), r.Moments.Mean)
	}
}
