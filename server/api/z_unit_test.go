package api

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zintix-labs/ranlab"
	"github.com/zintix-labs/ranlab/presets"
	"github.com/zintix-labs/ranlab/sdk/core"
	"github.com/zintix-labs/ranlab/sdk/dist"
	v1 "github.com/zintix-labs/ranlab/server/api/v1"
	"github.com/zintix-labs/ranlab/server/logger"
	"github.com/zintix-labs/ranlab/server/netsvr"
	"github.com/zintix-labs/ranlab/server/svrcfg"
	"github.com/zintix-labs/ranlab/spec"
)

func newTestServer(t *testing.T) (*netsvr.ChiAdapter, *svrcfg.SvrCfg) {
	t.Helper()
	log := logger.NewWriterLogger(io.Discard, logger.ModeDev)
	lab, err := ranlab.NewAuto(core.Default(), ranlab.Presets(presets.FS), ranlab.WithLogger(log))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	sCfg := &svrcfg.SvrCfg{Log: log, PoolSize: 2, Workers: 4, MaxDraws: 200000, Lab: lab}
	if err := sCfg.Vaild(); err != nil {
		t.Fatalf("valid: %v", err)
	}
	svr := netsvr.NewChiServerDefault()
	h, err := RegisterRoutes(svr, sCfg)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	t.Cleanup(h.Runtime().Close)
	return svr, sCfg
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestIndexAndDists(t *testing.T) {
	svr, _ := newTestServer(t)

	rec := do(t, svr, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("index status %d", rec.Code)
	}
	idx := decode[struct {
		Routes []Route `json:"routes"`
	}](t, rec)
	if len(idx.Routes) != len(routes) {
		t.Fatalf("index routes %d", len(idx.Routes))
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id header missing")
	}

	rec = do(t, svr, http.MethodGet, "/v1/dists", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dists status %d: %s", rec.Code, rec.Body.String())
	}
	ds := decode[v1.DistsResponse](t, rec)
	if len(ds.Dists) != len(dist.Names()) {
		t.Fatalf("dists %d, want %d", len(ds.Dists), len(dist.Names()))
	}
	if ds.DefaultEngine != core.EngineRanmar || len(ds.Engines) != 2 || len(ds.Pools) != 2 {
		t.Fatalf("engines %+v pools %d", ds, len(ds.Pools))
	}

	rec = do(t, svr, http.MethodGet, "/v1/presets", "")
	ps := decode[struct {
		Presets []json.RawMessage `json:"presets"`
	}](t, rec)
	if len(ps.Presets) < 10 {
		t.Fatalf("presets %d", len(ps.Presets))
	}
}

func TestFillSeededIsReproducible(t *testing.T) {
	svr, sCfg := newTestServer(t)

	a := do(t, svr, http.MethodGet, "/v1/fill?dist=gauss&n=50&seed=42&params=mean%3D1,stdDev%3D3", "")
	b := do(t, svr, http.MethodPost, "/v1/fill", `{"dist":"Gauss","n":50,"seed":42,"params":{"MEAN":1,"stddev":3}}`)
	if a.Code != http.StatusOK || b.Code != http.StatusOK {
		t.Fatalf("status %d %d: %s %s", a.Code, b.Code, a.Body.String(), b.Body.String())
	}
	ra, rb := decode[v1.FillResponse](t, a), decode[v1.FillResponse](t, b)
	if ra.Seed == nil || *ra.Seed != 42 || ra.Dist != dist.NameGauss || ra.N != 50 {
		t.Fatalf("unexpected response %+v", ra)
	}
	if ra.Params["mean"] != 1 || ra.Params["stdDev"] != 3 {
		t.Fatalf("resolved params %v", ra.Params)
	}

	seed := int64(42)
	want, _, err := sCfg.Lab.Fill(&spec.RunSetting{
		Dist: "Gauss", N: 50, Seed: &seed, Params: map[string]float64{"mean": 1, "stdDev": 3},
	})
	if err != nil {
		t.Fatalf("lab fill: %v", err)
	}
	for i := range want {
		if ra.Samples[i] != want[i] || rb.Samples[i] != want[i] {
			t.Fatalf("sample %d: %v %v want %v", i, ra.Samples[i], rb.Samples[i], want[i])
		}
	}
}

func TestFillFromPool(t *testing.T) {
	svr, _ := newTestServer(t)
	rec := do(t, svr, http.MethodPost, "/v1/fill", `{"preset":"flat","n":1000,"engine":"pcg64"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	// 預設 flat 帶 seed，走可重現路徑
	r := decode[v1.FillResponse](t, rec)
	if r.Seed == nil || *r.Seed != 19780503 || r.Engine != core.EnginePCG64 {
		t.Fatalf("preset seed not kept: %+v", r.Seed)
	}

	rec = do(t, svr, http.MethodPost, "/v1/fill", `{"dist":"exponential","n":1000}`)
	r = decode[v1.FillResponse](t, rec)
	if r.Seed != nil || len(r.Samples) != 1000 {
		t.Fatalf("pooled fill: seed %v n %d", r.Seed, len(r.Samples))
	}
	for _, x := range r.Samples {
		if x < 0 || math.IsNaN(x) {
			t.Fatalf("bad exponential sample %v", x)
		}
	}
}

func TestRequestErrors(t *testing.T) {
	svr, _ := newTestServer(t)
	cases := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"unknown dist", http.MethodGet, "/v1/fill?dist=landau", "", http.StatusBadRequest},
		{"unknown param", http.MethodGet, "/v1/fill?dist=gauss&params=sigma%3D1", "", http.StatusBadRequest},
		{"too many", http.MethodGet, "/v1/fill?dist=flat&n=200001", "", http.StatusBadRequest},
		{"negative n", http.MethodGet, "/v1/sim?dist=flat&n=-1", "", http.StatusBadRequest},
		{"bad seed", http.MethodGet, "/v1/fill?dist=flat&seed=x", "", http.StatusBadRequest},
		{"no dist", http.MethodPost, "/v1/fill", `{"n":3}`, http.StatusBadRequest},
		{"both", http.MethodPost, "/v1/fill", `{"preset":"flat","dist":"flat"}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/v1/sim", `{"dist":"flat","rounds":3}`, http.StatusBadRequest},
		{"unknown engine", http.MethodPost, "/v1/fill", `{"dist":"flat","engine":"mt19937"}`, http.StatusBadRequest},
		{"bad hist", http.MethodGet, "/v1/sim?dist=flat&bins=0&min=0&max=1", "", http.StatusBadRequest},
		{"huge bins", http.MethodGet, "/v1/sim?dist=flat&bins=2147483648&min=0&max=1", "", http.StatusBadRequest},
		{"bins over cap", http.MethodPost, "/v1/sim", `{"dist":"flat","hist":{"bins":100001,"min":0,"max":1}}`, http.StatusBadRequest},
		{"stat bins over cap", http.MethodPost, "/v1/stat", `{"values":[0.5],"hist":{"bins":100001,"min":0,"max":1}}`, http.StatusBadRequest},
		{"empty stat", http.MethodPost, "/v1/stat", `{"values":[]}`, http.StatusBadRequest},
		{"method", http.MethodPut, "/v1/fill", "", http.StatusMethodNotAllowed},
	}
	for _, c := range cases {
		rec := do(t, svr, c.method, c.target, c.body)
		if rec.Code != c.status {
			t.Errorf("%s: status %d want %d (%s)", c.name, rec.Code, c.status, rec.Body.String())
		}
	}
}

func TestSimReport(t *testing.T) {
	svr, _ := newTestServer(t)

	rec := do(t, svr, http.MethodPost, "/v1/sim", `{"preset":"exponential-2","n":20000,"seed":7}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	r := decode[v1.SimResponse](t, rec)
	s := r.Report.Summary
	if r.Seed != 7 || s.Count != 20000 || r.Workers != 1 {
		t.Fatalf("unexpected report seed=%d count=%d workers=%d", r.Seed, s.Count, r.Workers)
	}
	if math.Abs(s.Mean-2) > 0.1 {
		t.Fatalf("exponential mean %v", s.Mean)
	}
	if r.Report.Quantiles == nil || r.Report.Hist == nil || r.Report.Theory == nil {
		t.Fatalf("single worker report should be complete")
	}

	// 同 seed 重跑結果相同
	again := decode[v1.SimResponse](t, do(t, svr, http.MethodPost, "/v1/sim", `{"preset":"exponential-2","n":20000,"seed":7}`))
	if again.Report.Summary.Mean != s.Mean {
		t.Fatalf("seeded sim not reproducible: %v vs %v", again.Report.Summary.Mean, s.Mean)
	}

	rec = do(t, svr, http.MethodGet, "/v1/sim?dist=gauss&n=10001&workers=2&seed=3", "")
	mp := decode[v1.SimResponse](t, rec)
	if mp.Workers != 2 || mp.Report.Summary.Count != 10002 {
		t.Fatalf("parallel sim workers=%d count=%d", mp.Workers, mp.Report.Summary.Count)
	}
}

func TestStat(t *testing.T) {
	svr, _ := newTestServer(t)
	rec := do(t, svr, http.MethodPost, "/v1/stat",
		`{"name":"mine","dist":"flat","values":[0.1,0.2,0.3,0.4],"hist":{"bins":2,"min":0,"max":1}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var rep struct {
		Summary struct {
			Name  string
			Dist  string
			Count int64
			Mean  float64
		}
		Hist *struct {
			H1 struct{ Freq []float64 }
		}
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.Summary.Name != "mine" || rep.Summary.Dist != dist.NameFlat || rep.Summary.Count != 4 {
		t.Fatalf("summary %+v", rep.Summary)
	}
	if math.Abs(rep.Summary.Mean-0.25) > 1e-12 {
		t.Fatalf("mean %v", rep.Summary.Mean)
	}
	if rep.Hist == nil || rep.Hist.H1.Freq[1] != 4 {
		t.Fatalf("hist %+v", rep.Hist)
	}
}

func TestDevPanel(t *testing.T) {
	svr, _ := newTestServer(t)
	rec := do(t, svr, http.MethodGet, "/dev", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "RanLab Dev Panel") {
		t.Fatalf("dev page status %d", rec.Code)
	}
	rec = do(t, svr, http.MethodPost, "/dev/peek", `{"preset":"gauss-5-2","n":3}`)
	peek := decode[struct {
		Seed    int64     `json:"seed"`
		Samples []float64 `json:"samples"`
	}](t, rec)
	if peek.Seed != 12345 || len(peek.Samples) != 3 {
		t.Fatalf("peek %+v", peek)
	}
	rec = do(t, svr, http.MethodPost, "/dev/sim", `{"dist":"Poisson","params":"mean=3","n":5000,"seed":9}`)
	if rec.Code != http.StatusOK || rec.Header().Get("X-Seed") != "9" {
		t.Fatalf("dev sim status %d seed %q", rec.Code, rec.Header().Get("X-Seed"))
	}
	if !strings.Contains(rec.Body.String(), "Poisson") {
		t.Fatalf("dev sim table missing dist name:\n%s", rec.Body.String())
	}
}
