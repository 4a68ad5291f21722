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

package spec

import (
	"errors"
	"testing"

	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/hist"
)

func TestRunSettingYAML(t *testing.T) {
	doc := []byte(`
name: gauss-5-2
dist: gauss
n: 5000
seed: 12345
params:
  mean: 5
  stdDev: 2
hist:
  bins: 40
  min: -5
  max: 15
`)
	rs, err := GetRunSettingByYAML(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.Dist != "Gauss" {
		t.Fatalf("dist should be canonicalized, got %q", rs.Dist)
	}
	if rs.N != 5000 || rs.SeedOr(0) != 12345 || rs.Engine != "ranmar" {
		t.Fatalf("unexpected setting %+v", rs)
	}
	if rs.Params["mean"] != 5 || rs.Hist.Bins != 40 {
		t.Fatalf("params/hist not decoded: %+v", rs)
	}
}

func TestRunSettingDefaults(t *testing.T) {
	rs, err := GetRunSettingByJSON([]byte(`{"dist":"Poisson","params":{"mean":3}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.N != DefaultN {
		t.Fatalf("expected default n, got %d", rs.N)
	}
	if rs.Seed != nil {
		t.Fatalf("seed should stay unset")
	}
	if rs.SeedOr(7) != 7 {
		t.Fatalf("SeedOr fallback not applied")
	}
	if rs.Name != "poisson" {
		t.Fatalf("default name should follow dist, got %q", rs.Name)
	}
}

func TestRunSettingStrict(t *testing.T) {
	if _, err := GetRunSettingByYAML([]byte("dist: gauss\nsamples: 10\n")); err == nil {
		t.Fatalf("unknown yaml field should fail")
	}
	if _, err := GetRunSettingByJSON([]byte(`{"dist":"gauss","sample":10}`)); err == nil {
		t.Fatalf("unknown json field should fail")
	}
	if _, err := GetRunSettingByYAML([]byte("")); err == nil {
		t.Fatalf("empty document should fail")
	}
}

func TestRunSettingValidation(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{"unknown dist", "dist: landau\n", errs.ErrUnknownDist},
		{"unknown param", "dist: gamma\nparams: {theta: 1}\n", errs.ErrUnknownParam},
		{"negative n", "dist: flat\nn: -1\n", errs.ErrInvalidCount},
		{"bad engine", "dist: flat\nengine: mt19937\n", errs.ErrUnknownEngine},
	}
	for _, c := range cases {
		_, err := GetRunSettingByYAML([]byte(c.doc))
		if !errors.Is(err, c.want) {
			t.Errorf("[%s] expected %v, got %v", c.name, c.want, err)
		}
		if e, ok := errs.AsErr(err); !ok || e.ErrLv != errs.Warn {
			t.Errorf("[%s] expected warn level, got %v", c.name, err)
		}
	}

	if _, err := GetRunSettingByYAML([]byte("dist: flat\nhist: {bins: 0, min: 0, max: 1}\n")); err == nil {
		t.Fatalf("zero bins should fail")
	}
	if _, err := GetRunSettingByYAML([]byte("dist: flat\nhist: {bins: 10, min: 1, max: 1}\n")); err == nil {
		t.Fatalf("empty hist range should fail")
	}
	huge := &RunSetting{Dist: "Flat", N: 10, Hist: &HistSetting{Bins: 1 << 30, Max: 1}}
	err := huge.Init()
	if e, ok := errs.AsErr(err); !ok || e.ErrLv != errs.Warn {
		t.Fatalf("bins above hist.MaxBins should be a warn error, got %v", err)
	}
	capped := &RunSetting{Dist: "Flat", N: 10, Hist: &HistSetting{Bins: hist.MaxBins, Max: 1}}
	if err := capped.Init(); err != nil {
		t.Fatalf("hist.MaxBins should pass: %v", err)
	}
}

func TestClone(t *testing.T) {
	seed := int64(3)
	rs := &RunSetting{Dist: "Flat", Seed: &seed, Params: map[string]float64{"a": 1}, Hist: &HistSetting{Bins: 2, Max: 1}}
	if err := rs.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	c := rs.Clone()
	c.Params["a"] = 9
	*c.Seed = 9
	c.Hist.Bins = 9
	if rs.Params["a"] != 1 || *rs.Seed != 3 || rs.Hist.Bins != 2 {
		t.Fatalf("clone shares state with original")
	}
}

func TestParseParams(t *testing.T) {
	got, err := ParseParams("mean=5, stdDev=2.5,cut=1e-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["mean"] != 5 || got["stdDev"] != 2.5 || got["cut"] != 0.1 {
		t.Fatalf("unexpected params %v", got)
	}
	if m, err := ParseParams("  "); err != nil || len(m) != 0 {
		t.Fatalf("empty input should give empty map")
	}
	for _, bad := range []string{"mean", "mean=", "mean=abc"} {
		if _, err := ParseParams(bad); !errors.Is(err, errs.ErrInvalidParam) {
			t.Errorf("ParseParams(%q) expected ErrInvalidParam, got %v", bad, err)
		}
	}
}
