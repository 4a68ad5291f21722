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

package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/zintix-labs/ranlab"
	"github.com/zintix-labs/ranlab/catalog"
	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/sdk/core"
	"github.com/zintix-labs/ranlab/sdk/dist"
	"github.com/zintix-labs/ranlab/server/httperr"
	"github.com/zintix-labs/ranlab/server/svrcfg"
	"github.com/zintix-labs/ranlab/stats"
)

const fillTimeout = 10 * time.Second

// Handler v1 API。取樣走 Runtime 的引擎池，模擬每次建立新的 Simulator。
type Handler struct {
	lab      *ranlab.Lab
	rt       *ranlab.Runtime
	log      *slog.Logger
	maxDraws int
	workers  int
}

// NewHandler sCfg 需先通過 Vaild。
func NewHandler(sCfg *svrcfg.SvrCfg) (*Handler, error) {
	rt, err := sCfg.Lab.BuildRuntime(sCfg.PoolSize)
	if err != nil {
		return nil, errs.Wrap(err, "build v1 handler error")
	}
	return &Handler{
		lab:      sCfg.Lab,
		rt:       rt,
		log:      sCfg.Log,
		maxDraws: sCfg.MaxDraws,
		workers:  sCfg.Workers,
	}, nil
}

// Runtime 回傳引擎池 runtime，服務關閉時由上層 Close。
func (h *Handler) Runtime() *ranlab.Runtime {
	return h.rt
}

// DistsResponse GET /v1/dists
type DistsResponse struct {
	Dists         []dist.Info                `json:"dists"`
	Engines       []string                   `json:"engines"`
	DefaultEngine string                     `json:"default_engine"`
	MaxDraws      int                        `json:"max_draws"`
	Pools         []ranlab.EnginePoolMetrics `json:"pools"`
}

func (h *Handler) Dists(w http.ResponseWriter, r *http.Request) {
	httperr.JSON(w, DistsResponse{
		Dists:         dist.Catalog(),
		Engines:       core.EngineNames(),
		DefaultEngine: h.lab.DefaultEngine(),
		MaxDraws:      h.maxDraws,
		Pools:         h.rt.Metrics(),
	})
}

// Presets GET /v1/presets
func (h *Handler) Presets(w http.ResponseWriter, r *http.Request) {
	httperr.JSON(w, struct {
		Presets []catalog.Summary `json:"presets"`
	}{Presets: h.lab.Summary()})
}

// FillResponse GET|POST /v1/fill
//
// Seed 只在請求指定 seed（或預設帶 seed）時出現；未指定時樣本來自引擎池，不可重現。
type FillResponse struct {
	Dist    string             `json:"dist"`
	Engine  string             `json:"engine"`
	Params  map[string]float64 `json:"params"`
	N       int                `json:"n"`
	Seed    *int64             `json:"seed,omitempty"`
	Samples []float64          `json:"samples"`
}

func (h *Handler) Fill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		httperr.MethodNotAllowed(w)
		return
	}
	req, err := decodeRunRequest(w, r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	rs, err := req.Setting(h.lab, h.maxDraws)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	canon, params, err := dist.Resolve(rs.Dist, rs.Params)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), fillTimeout)
	defer cancel()
	xs, seed, err := h.rt.Fill(ctx, rs)
	if err != nil {
		httperr.Log(h.log, "fill failed", err)
		httperr.Errs(w, err)
		return
	}
	httperr.JSON(w, FillResponse{
		Dist:    canon,
		Engine:  rs.Engine,
		Params:  params,
		N:       len(xs),
		Seed:    seed,
		Samples: xs,
	})
}

// SimResponse GET|POST /v1/sim
type SimResponse struct {
	Report   *stats.SampleReport `json:"report"`
	Seed     int64               `json:"seed"`
	Workers  int                 `json:"workers"`
	UsedTime int64               `json:"used_ms"`
}

// Sim 產生完整報表。workers > 1 時平行取樣（每組 ceil(n/workers) 筆），報表不含分位數與理論比較。
func (h *Handler) Sim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		httperr.MethodNotAllowed(w)
		return
	}
	req, err := decodeRunRequest(w, r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	rs, err := req.Setting(h.lab, h.maxDraws)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	workers := min(max(1, req.Workers), h.workers)

	sim, err := h.lab.NewSimulator(rs)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "build simulator err"))
		return
	}
	var (
		rep  *stats.SampleReport
		used time.Duration
	)
	if workers == 1 {
		rep, used, err = sim.Sim(rs.N, false)
	} else {
		rep, used, err = sim.SimMP((rs.N+workers-1)/workers, workers, false)
	}
	if err != nil {
		httperr.Log(h.log, "simulate failed", err)
		httperr.Errs(w, errs.Wrap(err, "simulate err"))
		return
	}
	httperr.JSON(w, SimResponse{
		Report:   rep,
		Seed:     sim.Seed(),
		Workers:  workers,
		UsedTime: used.Milliseconds(),
	})
}
