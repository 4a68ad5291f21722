package catalog

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/ranlab/presets"
)

func TestEmbeddedPresets(t *testing.T) {
	c, err := New(presets.FS)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.RegisterAll(); err != nil {
		t.Fatalf("register all: %v", err)
	}
	if _, err := c.Summaries(); !errors.Is(err, ErrNotFrozen) {
		t.Fatalf("summaries before freeze should fail, got %v", err)
	}
	c.Freeze()
	sums, err := c.Summaries()
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if len(sums) < 10 {
		t.Fatalf("expected the default presets, got %d", len(sums))
	}
	for i := 1; i < len(sums); i++ {
		if sums[i-1].Name >= sums[i].Name {
			t.Fatalf("summaries not sorted: %s >= %s", sums[i-1].Name, sums[i].Name)
		}
	}

	rs, err := c.RunSettingByName("  GAUSS-5-2 ")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if rs.Dist != "Gauss" || rs.SeedOr(0) != 12345 || rs.Hist == nil {
		t.Fatalf("unexpected preset %+v", rs)
	}
	// 每次取得新的副本
	rs.Params["mean"] = 99
	again, _ := c.RunSettingByName("gauss-5-2")
	if again.Params["mean"] != 5 {
		t.Fatalf("preset mutated through returned setting")
	}

	if _, err := c.RunSettingByName("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := c.Register(Entry{Name: "x", ConfigName: "flat.yaml"}); err == nil {
		t.Fatalf("register after freeze should fail")
	}
}

func TestMultiFSAndDuplicates(t *testing.T) {
	a := fstest.MapFS{
		"one.yaml":   {Data: []byte("name: one\ndist: flat\n")},
		"readme.txt": {Data: []byte("ignored")},
	}
	b := fstest.MapFS{
		"two.json": {Data: []byte(`{"name":"Two","dist":"gauss"}`)},
	}
	c, err := New(a, b)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.RegisterAll(); err != nil {
		t.Fatalf("register all: %v", err)
	}
	if got := c.Names(); len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Fatalf("names %v", got)
	}

	// 同檔名出現在兩個來源
	if _, err := New(a, fstest.MapFS{"one.yaml": {Data: []byte("dist: flat\n")}}); err == nil {
		t.Fatalf("duplicate file across fs should fail")
	}
	// 子目錄
	if _, err := New(fstest.MapFS{"sub/x.yaml": {Data: []byte("dist: flat\n")}}); err == nil {
		t.Fatalf("nested fs should fail")
	}
	// 不同檔案宣告同一個名稱
	dup := fstest.MapFS{
		"a.yaml": {Data: []byte("name: same\ndist: flat\n")},
		"b.yaml": {Data: []byte("name: SAME\ndist: gauss\n")},
	}
	c2, _ := New(dup)
	if err := c2.RegisterAll(); !errors.Is(err, ErrDupName) {
		t.Fatalf("expected duplicate name, got %v", err)
	}
	if len(c2.Names()) != 0 {
		t.Fatalf("failed registration must not be partial")
	}
	// 設定內容錯誤
	bad := fstest.MapFS{"bad.yaml": {Data: []byte("dist: landau\n")}}
	c3, _ := New(bad)
	if err := c3.RegisterAll(); err == nil {
		t.Fatalf("invalid preset should fail")
	}
}

func TestValidFileName(t *testing.T) {
	for _, f := range []string{"", "a/b.yaml", ".yaml", "x.txt", `c:\x.json`} {
		if err := validFileName(f); err == nil {
			t.Errorf("%q should be rejected", f)
		}
	}
	if err := validFileName("ok.YML"); err != nil {
		t.Fatalf("ok.YML should pass: %v", err)
	}
}
