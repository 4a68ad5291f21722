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

package core

import (
	"errors"
	"testing"

	"github.com/zintix-labs/ranlab/errs"
)

// Marsaglia & Zaman 公開的檢驗值：ij=1802, kl=9373，
// 丟棄前 20000 個輸出後，接下來 6 個輸出乘上 4096*4096 應為下列整數。
func TestRanmarPublishedVector(t *testing.T) {
	r := NewJamesRandom(1802*30082 + 9373)
	for i := 0; i < 20000; i++ {
		r.Flat()
	}
	want := []float64{6533892, 14220222, 7275067, 6172232, 8354498, 10633180}
	for i, w := range want {
		if got := r.Flat() * 4096 * 4096; got != w {
			t.Fatalf("draw %d: want %v got %v", 20001+i, w, got)
		}
	}
}

func TestRanmarSeedVectors(t *testing.T) {
	cases := []struct {
		seed int64
		want []float64
	}{
		{12345, []float64{0.6147778630256653, 0.41718655824661255, 0.023889005184173584, 0.24080830812454224, 0.7605711221694946}},
		{0, []float64{0.3451164960861206, 0.08014267683029175, 0.17824393510818481}},
		{DefaultSeed, []float64{0.9952924251556396, 0.36387842893600464, 0.6576707363128662}},
	}
	for _, c := range cases {
		r := NewJamesRandom(c.seed)
		for i, w := range c.want {
			if got := r.Flat(); got != w {
				t.Fatalf("seed %d draw %d: want %v got %v", c.seed, i, w, got)
			}
		}
	}
}

func TestRanmarDeterminism(t *testing.T) {
	a := NewJamesRandom(987654)
	b := NewJamesRandom(987654)
	for i := 0; i < 10000; i++ {
		if x, y := a.Flat(), b.Flat(); x != y {
			t.Fatalf("mismatch at %d: %v vs %v", i, x, y)
		}
	}
}

func TestRanmarSetSeedResets(t *testing.T) {
	r := NewJamesRandom(42)
	first := r.FlatArray(16)
	r.Flat()
	r.SetSeed(42)
	again := r.FlatArray(16)
	for i := range first {
		if first[i] != again[i] {
			t.Fatalf("reseed mismatch at %d", i)
		}
	}
	if r.Seed() != 42 {
		t.Fatalf("expected seed 42, got %d", r.Seed())
	}
}

func TestNegativeSeedUsesAbsoluteValue(t *testing.T) {
	for _, f := range []Factory{Default(), pcg64Factory{}} {
		neg := f.New(-777)
		pos := f.New(777)
		if neg.Seed() != 777 {
			t.Fatalf("%s: expected seed 777, got %d", f.Name(), neg.Seed())
		}
		for i := 0; i < 100; i++ {
			if neg.Flat() != pos.Flat() {
				t.Fatalf("%s: negative seed sequence differs at %d", f.Name(), i)
			}
		}
	}
}

func TestFlatOpenInterval(t *testing.T) {
	engines := []Engine{NewJamesRandom(1), NewPCG64(1)}
	for _, e := range engines {
		buf := make([]float64, 1_000_000)
		e.FillFlat(buf)
		for i, v := range buf {
			if v <= 0 || v >= 1 {
				t.Fatalf("%s: value %v out of (0,1) at %d", e.Name(), v, i)
			}
		}
	}
}

func TestFlatArrayMatchesSequentialDraws(t *testing.T) {
	a := NewJamesRandom(5)
	b := NewJamesRandom(5)
	arr := a.FlatArray(64)
	for i, v := range arr {
		if w := b.Flat(); v != w {
			t.Fatalf("FlatArray[%d]=%v, sequential=%v", i, v, w)
		}
	}
	if got := a.FlatArray(0); len(got) != 0 {
		t.Fatalf("expected empty array, got %d", len(got))
	}
	if got := a.FlatArray(-3); len(got) != 0 {
		t.Fatalf("expected empty array for negative n, got %d", len(got))
	}
}

func TestPCG64Determinism(t *testing.T) {
	a := NewPCG64(99)
	b := NewPCG64(99)
	for i := 0; i < 1000; i++ {
		if a.Flat() != b.Flat() {
			t.Fatalf("pcg64 mismatch at %d", i)
		}
	}
	a.SetSeed(99)
	c := NewPCG64(99)
	if a.Flat() != c.Flat() {
		t.Fatalf("pcg64 reseed mismatch")
	}
}

func TestFactoryByName(t *testing.T) {
	for _, name := range []string{"", "ranmar", "RANMAR", "pcg64"} {
		f, err := FactoryByName(name)
		if err != nil {
			t.Fatalf("FactoryByName(%q) error: %v", name, err)
		}
		if f.New(1).Name() != f.Name() {
			t.Fatalf("factory %q built engine %q", f.Name(), f.New(1).Name())
		}
	}
	_, err := FactoryByName("mt19937")
	if !errors.Is(err, errs.ErrUnknownEngine) {
		t.Fatalf("expected ErrUnknownEngine, got %v", err)
	}
}

func TestSourceDeterministicUint64(t *testing.T) {
	a := NewSource(NewJamesRandom(3))
	b := NewSource(NewJamesRandom(3))
	seen := map[uint64]bool{}
	for i := 0; i < 100; i++ {
		x, y := a.Uint64(), b.Uint64()
		if x != y {
			t.Fatalf("source mismatch at %d", i)
		}
		seen[x] = true
	}
	if len(seen) < 99 {
		t.Fatalf("source produced too many duplicates: %d unique", len(seen))
	}
	if v := a.Rand().Float64(); v < 0 || v >= 1 {
		t.Fatalf("rand.Float64 out of range: %v", v)
	}
}

func TestScriptedCycles(t *testing.T) {
	s := NewScripted(0.1, 0.2)
	got := s.FlatArray(3)
	if got[0] != 0.1 || got[1] != 0.2 || got[2] != 0.1 {
		t.Fatalf("unexpected scripted sequence %v", got)
	}
	if s.Calls() != 3 {
		t.Fatalf("expected 3 calls, got %d", s.Calls())
	}
}
