// Package dev 提供 RanLab 的「內部 Dev Panel」HTTP endpoints。
//
// 給開發期快速檢查用：選一個預設或分佈，指定 seed 與樣本數，
// 看前幾筆樣本或整份統計表。這不是 production API，輸出格式可以隨時調整。
package dev

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zintix-labs/ranlab"
	"github.com/zintix-labs/ranlab/catalog"
	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/sdk/core"
	"github.com/zintix-labs/ranlab/sdk/dist"
	"github.com/zintix-labs/ranlab/server/httperr"
	"github.com/zintix-labs/ranlab/server/netsvr"
	"github.com/zintix-labs/ranlab/server/svrcfg"
	"github.com/zintix-labs/ranlab/spec"
	"github.com/zintix-labs/ranlab/stats"
)

// 面板上限，避免一次回傳過大的 payload。
const (
	maxPeek = 5000
	maxSim  = 3_000_000
)

// devRequest Dev Panel 的輸入。Preset 非空時優先使用預設，Dist 與 Params 被忽略。
type devRequest struct {
	Preset string `json:"preset"`
	Dist   string `json:"dist"`
	Params string `json:"params"` // "mean=1,sigma=2"
	Engine string `json:"engine"`
	N      int    `json:"n"`
	Seed   *int64 `json:"seed"`
}

// devMetaResp 前端下拉選單用。
type devMetaResp struct {
	Presets []catalog.Summary `json:"presets"`
	Dists   []dist.Info       `json:"dists"`
	Engines []string          `json:"engines"`
}

// devPeekResp 前幾筆樣本與用到的 seed，貼回 seed 即可重現。
type devPeekResp struct {
	Dist    string    `json:"dist"`
	Engine  string    `json:"engine"`
	Seed    int64     `json:"seed"`
	Samples []float64 `json:"samples"`
}

// Register 註冊 Dev Panel 的 routes。
//
// Routes：
//   - GET  /dev       ：Dev Panel HTML（內嵌 JS）。
//   - GET  /dev/meta  ：預設、分佈與引擎列表。
//   - POST /dev/peek  ：取前 n 筆樣本（上限 maxPeek）。
//   - POST /dev/sim   ：跑 n 筆並回傳純文字統計表（上限 maxSim）。
func Register(svr netsvr.NetRouter, cfg *svrcfg.SvrCfg) {
	svr.Get("/dev", devPage)
	svr.Get("/dev/meta", devMeta(cfg))
	svr.Post("/dev/peek", devPeek(cfg))
	svr.Post("/dev/sim", devSim(cfg))
}

const devPageHTML = `<!doctype html>
<html lang="zh-Hant">
<head>
  <meta charset="utf-8" />
  <title>RanLab Dev</title>
  <style>
    body { font-family: -apple-system,BlinkMacSystemFont,"Segoe UI",sans-serif; background:#0f172a; color:#e2e8f0; margin:0; }
    .wrap { max-width: 980px; margin: 24px auto; padding: 16px 20px; background:#111827; border:1px solid #1f2937; border-radius:12px; }
    h1 { margin: 0 0 16px; font-size: 22px; }
    .grid { display:grid; grid-template-columns: repeat(auto-fit, minmax(160px,1fr)); gap:12px; margin-bottom:12px; }
    label { display:flex; flex-direction:column; gap:6px; font-size: 13px; color:#cbd5e1; }
    input, select { background:#0b1224; color:#e2e8f0; border:1px solid #1f2738; border-radius:8px; padding:10px 12px; font-size:14px; }
    .actions { display:flex; gap:10px; justify-content:flex-end; margin: 8px 0 14px; }
    button { cursor:pointer; border:none; border-radius:10px; padding:10px 14px; font-weight:600; }
    #btn-peek { background:#38bdf8; color:#0b1224; }
    #btn-sim { background:#22c55e; color:#0b1224; }
    button:disabled { opacity:0.6; cursor:not-allowed; }
    #out { background:#0b1224; border:1px solid #1f2738; border-radius:12px; padding:14px; min-height:160px; overflow:auto; font-family: ui-monospace, Menlo, Consolas, monospace; white-space:pre; }
  </style>
</head>
<body>
  <div class="wrap">
    <h1>RanLab Dev Panel</h1>
    <div class="grid">
      <label>Preset <select id="preset"><option value="">(none)</option></select></label>
      <label>Dist <select id="dist"></select></label>
      <label>Params <input id="params" type="text" placeholder="mean=0,sigma=1" /></label>
      <label>Engine <select id="engine"><option value="">(default)</option></select></label>
      <label>Seed <input id="seed" type="text" inputmode="numeric" placeholder="Empty = auto" /></label>
      <label>N <input id="n" type="number" min="1" value="1000" /></label>
    </div>
    <div class="actions">
      <button id="btn-peek">Peek</button>
      <button id="btn-sim">Sim</button>
    </div>
    <pre id="out"></pre>
  </div>
<script>
const $ = (id) => document.getElementById(id);
function addOpt(sel, value, text) {
  const o = document.createElement('option');
  o.value = value; o.textContent = text; sel.appendChild(o);
}
async function loadMeta() {
  const res = await fetch('/dev/meta');
  const m = await res.json();
  (m.presets || []).forEach((p) => addOpt($('preset'), p.name, p.name + ' (' + p.dist + ')'));
  (m.dists || []).forEach((d) => addOpt($('dist'), d.name, d.name));
  (m.engines || []).forEach((e) => addOpt($('engine'), e, e));
}
function payload() {
  const p = { preset: $('preset').value, dist: $('dist').value, params: $('params').value.trim(),
    engine: $('engine').value, n: Number($('n').value) || 1 };
  const s = $('seed').value.trim();
  if (s !== '') p.seed = Number(s);
  return p;
}
async function call(path, asText) {
  $('btn-peek').disabled = true; $('btn-sim').disabled = true;
  try {
    const res = await fetch(path, { method: 'POST', headers: { 'Content-Type': 'application/json' }, body: JSON.stringify(payload()) });
    const body = await res.text();
    if (!res.ok) throw new Error(body);
    if (asText) { $('out').textContent = body; return; }
    const d = JSON.parse(body);
    $('seed').value = String(d.seed);
    $('out').textContent = JSON.stringify(d, null, 2);
  } catch (err) {
    $('out').textContent = 'Request failed: ' + err.message;
  } finally {
    $('btn-peek').disabled = false; $('btn-sim').disabled = false;
  }
}
$('btn-peek').addEventListener('click', () => call('/dev/peek', false));
$('btn-sim').addEventListener('click', () => call('/dev/sim', true));
loadMeta();
</script>
</body>
</html>`

func devPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(devPageHTML))
}

func devMeta(cfg *svrcfg.SvrCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lab, ok := getLab(cfg)
		if !ok {
			httperr.Errs(w, errs.NewFatal("lab is required"))
			return
		}
		httperr.JSON(w, devMetaResp{
			Presets: lab.Summary(),
			Dists:   dist.Catalog(),
			Engines: core.EngineNames(),
		})
	}
}

// devPeek 以固定 seed 建立模擬器取樣；未給 seed 時自動產生並回傳。
func devPeek(cfg *svrcfg.SvrCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lab, rs, err := decode(cfg, r, maxPeek)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		sim, err := lab.NewSimulator(rs)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		xs, err := sim.Samples(rs.N)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		httperr.JSON(w, devPeekResp{
			Dist:    sim.Dist,
			Engine:  sim.Setting().Engine,
			Seed:    sim.Seed(),
			Samples: xs,
		})
	}
}

// devSim 回傳與 CLI 相同的純文字統計表。
func devSim(cfg *svrcfg.SvrCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lab, rs, err := decode(cfg, r, maxSim)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		sim, err := lab.NewSimulator(rs)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		rep, used, err := sim.Sim(rs.N, false)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Seed", strconv.FormatInt(sim.Seed(), 10))
		_ = rep.WriteWith(w, &stats.TableSampleReportRender{Elapsed: used.Round(time.Millisecond), BarWidth: 40})
	}
}

// decode 解析請求並組出設定，n 超過 limit 時截斷。
func decode(cfg *svrcfg.SvrCfg, r *http.Request, limit int) (*ranlab.Lab, *spec.RunSetting, error) {
	lab, ok := getLab(cfg)
	if !ok {
		return nil, nil, errs.NewFatal("lab is required")
	}
	req := new(devRequest)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return nil, nil, errs.NewWarn("invalid json:" + err.Error())
	}
	var rs *spec.RunSetting
	if name := strings.TrimSpace(req.Preset); name != "" {
		preset, err := lab.Setting(name)
		if err != nil {
			return nil, nil, err
		}
		rs = preset
	} else {
		params, err := spec.ParseParams(req.Params)
		if err != nil {
			return nil, nil, err
		}
		rs = &spec.RunSetting{Dist: req.Dist, Params: params}
	}
	if req.Engine != "" {
		rs.Engine = req.Engine
	}
	if req.Seed != nil {
		rs.Seed = req.Seed
	}
	if req.N < 1 {
		return nil, nil, errs.ErrInvalidCount.Withf("n=%d", req.N)
	}
	rs.N = min(req.N, limit)
	if err := rs.Init(); err != nil {
		return nil, nil, err
	}
	return lab, rs, nil
}

func getLab(cfg *svrcfg.SvrCfg) (*ranlab.Lab, bool) {
	if cfg == nil || cfg.Lab == nil {
		return nil, false
	}
	return cfg.Lab, true
}
