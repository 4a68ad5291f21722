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

package ranlab

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/zintix-labs/ranlab/catalog"
	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/presets"
	"github.com/zintix-labs/ranlab/sdk/core"
	"github.com/zintix-labs/ranlab/sdk/dist"
	"github.com/zintix-labs/ranlab/spec"
)

func newLab(t *testing.T) *Lab {
	t.Helper()
	lab, err := NewAuto(core.Default(), Presets(presets.FS), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	return lab
}

func setting(t *testing.T, doc string) *spec.RunSetting {
	t.Helper()
	rs, err := spec.GetRunSettingByYAML([]byte(doc))
	if err != nil {
		t.Fatalf("setting: %v", err)
	}
	return rs
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, Presets(presets.FS)); err == nil {
		t.Fatalf("nil factory should fail")
	}
	if _, err := New(core.Default(), nil); err == nil {
		t.Fatalf("missing presets should fail")
	}
	lab, err := New(core.Default(), Presets(presets.FS))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := lab.Setting("gauss-5-2"); err == nil {
		t.Fatalf("setting before freeze should fail")
	}
	if _, err := lab.BuildRuntime(1); err == nil {
		t.Fatalf("runtime before freeze should fail")
	}
}

func TestLabSummaryAndPresets(t *testing.T) {
	lab := newLab(t)
	if !lab.IsFrozen() || len(lab.Summary()) != len(lab.Names()) {
		t.Fatalf("summary %d names %d", len(lab.Summary()), len(lab.Names()))
	}
	if _, ok := lab.EntryByName("GAUSS-5-2"); !ok {
		t.Fatalf("preset lookup should ignore case")
	}
	if err := lab.Register(catalog.Entry{Name: "late", ConfigName: "flat.yaml"}); err == nil {
		t.Fatalf("register after freeze should fail")
	}
	sim, err := lab.NewSimulatorByName("gauss-5-2")
	if err != nil {
		t.Fatalf("by name: %v", err)
	}
	if sim.Seed() != 12345 || sim.Dist != "Gauss" {
		t.Fatalf("preset seed/dist not used: %d %s", sim.Seed(), sim.Dist)
	}
	if _, err := lab.NewSimulatorByName("landau"); err == nil {
		t.Fatalf("unknown preset should fail")
	}
}

func TestSamplesMatchDirectFill(t *testing.T) {
	lab := newLab(t)
	rs := setting(t, "dist: gauss\nparams: {mean: 5, stdDev: 2}\n")
	sim, err := lab.NewSimulatorWithSeed(rs, 12345)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	got, err := sim.Samples(1000)
	if err != nil {
		t.Fatalf("samples: %v", err)
	}
	want := dist.Fill(dist.NewGauss(core.NewJamesRandom(12345), dist.GaussParams{Mean: 5, StdDev: 2}), 1000)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("draw %d: %v != %v", i, got[i], want[i])
		}
	}
	if rs.Seed != nil {
		t.Fatalf("caller setting must not be modified")
	}
	if _, err := sim.Samples(0); err == nil {
		t.Fatalf("n=0 should fail")
	}

	xs, seed, err := lab.Fill(setting(t, "dist: gauss\nseed: 12345\nn: 1000\nparams: {mean: 5, stdDev: 2}\n"))
	if err != nil || seed != 12345 {
		t.Fatalf("fill: %v seed=%d", err, seed)
	}
	for i := range want {
		if xs[i] != want[i] {
			t.Fatalf("lab fill draw %d differs", i)
		}
	}
}

func TestSimReports(t *testing.T) {
	lab := newLab(t)
	sim, err := lab.NewSimulatorByYAML([]byte("dist: exponential\nseed: 7\nparams: {mean: 2}\nhist: {bins: 10, min: 0, max: 10}\n"))
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	rep, _, err := sim.Sim(10000, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Summary.Count != 10000 || rep.Summary.Seed != 7 || rep.Summary.Engine != "ranmar" {
		t.Fatalf("summary %+v", rep.Summary)
	}
	if rep.Theory == nil || rep.Theory.KSPValue < 0.001 {
		t.Fatalf("theory %+v", rep.Theory)
	}
	if rep.Hist == nil || rep.Hist.H1.Entries() != 10000 {
		t.Fatalf("hist missing")
	}

	mp, _, err := sim.SimMP(5000, 4, false)
	if err != nil {
		t.Fatalf("mp: %v", err)
	}
	if mp.Summary.Count != 20000 || mp.Quantiles != nil {
		t.Fatalf("mp summary %+v", mp.Summary)
	}
	// 相同 seed 的模擬器結果相同
	again, _ := lab.NewSimulatorByYAML([]byte("dist: exponential\nseed: 7\nparams: {mean: 2}\nhist: {bins: 10, min: 0, max: 10}\n"))
	if _, _, err := again.Sim(10000, false); err != nil {
		t.Fatalf("run: %v", err)
	}
	mp2, _, _ := again.SimMP(5000, 4, false)
	if mp2.Summary.Mean != mp.Summary.Mean || mp2.Summary.Max != mp.Summary.Max {
		t.Fatalf("simulation not reproducible: %v vs %v", mp2.Summary.Mean, mp.Summary.Mean)
	}
	if _, _, err := sim.SimMP(10, 0, false); err == nil {
		t.Fatalf("zero workers should fail")
	}
	if _, _, err := sim.Sim(0, false); !errors.Is(err, errs.ErrInvalidCount) {
		t.Fatalf("n=0 should be invalid count, got %v", err)
	}
}

func TestSimBatches(t *testing.T) {
	lab := newLab(t)
	sim, err := lab.NewSimulatorWithSeed(setting(t, "dist: gauss\n"), 2024)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	all, est, _, err := sim.SimBatches(3, 200, 500, false)
	if err != nil {
		t.Fatalf("batches: %v", err)
	}
	if all.Summary.Count != 100000 || est.Batches != 200 || est.BatchSize != 500 {
		t.Fatalf("batch shape: count=%d batches=%d size=%d", all.Summary.Count, est.Batches, est.BatchSize)
	}
	if est.ExpectedStd == nil || est.Coverage == nil {
		t.Fatalf("gauss should have a theory reference")
	}
	// 批次平均的標準差接近 1/sqrt(500)
	if r := est.StdOfMeans / *est.ExpectedStd; r < 0.8 || r > 1.2 {
		t.Fatalf("std of means ratio %v", r)
	}
	if est.Coverage.Hat < 0.88 || est.Coverage.Hat > 1 {
		t.Fatalf("coverage %v", est.Coverage.Hat)
	}
	if _, _, _, err := sim.SimBatches(1, 0, 10, false); err == nil {
		t.Fatalf("zero batches should fail")
	}
}

func TestRuntimeFill(t *testing.T) {
	lab := newLab(t)
	rt, err := lab.BuildRuntime(2)
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	ctx := context.Background()

	seeded := setting(t, "dist: flat\nseed: 5\nn: 100\n")
	xs, seed, err := rt.Fill(ctx, seeded)
	if err != nil || seed == nil || *seed != 5 {
		t.Fatalf("seeded fill: %v", err)
	}
	want := dist.Fill(dist.NewFlat(core.NewJamesRandom(5), dist.DefaultFlatParams()), 100)
	for i := range want {
		if xs[i] != want[i] {
			t.Fatalf("seeded draw %d differs", i)
		}
	}

	pooled := setting(t, "dist: poisson\nn: 50\nengine: pcg64\nparams: {mean: 3}\n")
	xs, seed, err = rt.Fill(ctx, pooled)
	if err != nil || seed != nil || len(xs) != 50 {
		t.Fatalf("pooled fill: %v seed=%v len=%d", err, seed, len(xs))
	}
	p, _ := rt.Pool("pcg64")
	if m := p.Metrics(); m.Draws != 50 || m.Available != 2 || m.Inflight != 0 {
		t.Fatalf("metrics %+v", m)
	}
	if len(rt.Metrics()) != len(core.EngineNames()) {
		t.Fatalf("metrics per engine")
	}
	if _, err := rt.Pool("mt19937"); err == nil {
		t.Fatalf("unknown engine should fail")
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, _, err := rt.Fill(canceled, pooled); err == nil {
		t.Fatalf("canceled context should fail")
	}

	rt.Close()
	rt.Close()
	if !rt.Closed() || rt.ClosedReason() != "closed" {
		t.Fatalf("runtime not closed")
	}
	if _, _, err := rt.Fill(ctx, pooled); err == nil {
		t.Fatalf("closed runtime should fail")
	}
	if !p.Closed() {
		t.Fatalf("pools should close with runtime")
	}
}

func TestEnginePoolRecoversFromPanic(t *testing.T) {
	lab := newLab(t)
	p, err := newEnginePool(1, lab, core.Default(), 1)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	ctx := context.Background()
	_, err = p.Do(ctx, func(core.Engine) ([]float64, error) { panic("boom") })
	var e *errs.E
	if !errors.As(err, &e) || e.ErrLv != errs.Fatal {
		t.Fatalf("panic should surface as fatal, got %v", err)
	}
	if p.Metrics().Panics != 1 || p.ReBuild() != 1 || p.Available() != 1 {
		t.Fatalf("pool not rebuilt: %+v", p.Metrics())
	}

	// 一般錯誤不淘汰引擎
	_, err = p.Do(ctx, func(core.Engine) ([]float64, error) { return nil, errs.NewWarn("bad param") })
	if err == nil || p.ReBuild() != 1 || p.Available() != 1 {
		t.Fatalf("warn must not rebuild: %+v", p.Metrics())
	}
	_, err = p.Do(ctx, func(core.Engine) ([]float64, error) { return nil, errs.NewFatal("corrupt") })
	if err == nil || p.Metrics().Fatals != 1 || p.ReBuild() != 2 {
		t.Fatalf("fatal should rebuild: %+v", p.Metrics())
	}
}

func TestSeedMaker(t *testing.T) {
	a, b := newSeedMaker(42), newSeedMaker(42)
	seen := map[int64]bool{}
	for i := 0; i < 1000; i++ {
		x := a.next()
		if x < 0 || seen[x] {
			t.Fatalf("seed %d invalid or repeated", x)
		}
		seen[x] = true
		if y := b.next(); y != x {
			t.Fatalf("seed maker not deterministic")
		}
	}
}
