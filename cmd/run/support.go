package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/zintix-labs/ranlab"
	"github.com/zintix-labs/ranlab/presets"
	"github.com/zintix-labs/ranlab/sdk/core"
	"github.com/zintix-labs/ranlab/sdk/dist"
	"github.com/zintix-labs/ranlab/server/logger"
	"github.com/zintix-labs/ranlab/spec"
	"github.com/zintix-labs/ranlab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	preset    string
	dist      string
	params    string
	engine    string
	n         int
	seed      int64
	worker    int
	batches   int
	bins      int
	min       float64
	max       float64
	meanMax   float64
	out       string
	list      bool
	logMode   string
	pprofmode string
}

func bindVar() {
	// 綁定 Flag 到本地變數的指標 (&)
	flag.StringVar(&cfg.preset, "preset", "", "preset name (see -list)")
	flag.StringVar(&cfg.dist, "dist", "", "distribution name, e.g. Gauss")
	flag.StringVar(&cfg.params, "param", "", "params, e.g. mean=1,stdDev=2")
	flag.StringVar(&cfg.engine, "engine", "", "engine: ranmar, pcg64")
	flag.IntVar(&cfg.n, "n", 0, "draws (per worker / per batch)")
	flag.Int64Var(&cfg.seed, "seed", -1, "seed for the random engine, < 0 = preset seed or random")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.batches, "batches", 0, "independent batches of n draws (0 = off)")
	flag.IntVar(&cfg.bins, "bins", 0, "histogram bins (0 = preset or off)")
	flag.Float64Var(&cfg.min, "min", 0, "histogram lower edge")
	flag.Float64Var(&cfg.max, "max", 1, "histogram upper edge")
	flag.Float64Var(&cfg.meanMax, "mean-max", 0, "Poisson mean limit (0 = default)")
	flag.StringVar(&cfg.out, "out", "table", "output: table, json, yaml")
	flag.BoolVar(&cfg.list, "list", false, "list presets and distributions")
	flag.StringVar(&cfg.logMode, "log-mode", "dev", "log mode: dev, prod, silence")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()
}

// 這裡解析並分支要執行的模擬器
func executeSimulator() {
	mode, err := logger.ParseMode(cfg.logMode)
	if err != nil {
		log.Fatal(err)
	}
	// 報表走 stdout，log 走 stderr
	lg := logger.NewWriterLogger(os.Stderr, mode)
	lab, err := ranlab.NewAuto(core.Default(), ranlab.Presets(presets.FS), ranlab.WithLogger(lg))
	if err != nil {
		log.Fatal(err)
	}
	if cfg.list {
		listAll(os.Stdout, lab)
		return
	}
	rs, err := cfg.setting(lab)
	if err != nil {
		log.Fatal(err)
	}
	s, err := lab.NewSimulator(rs)
	if err != nil {
		log.Fatal(err)
	}
	// 至此確保可執行
	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	showpb := cfg.out == "table"
	if showpb {
		p.Printf("%s[DIST:%s] [ENGINE:%s] [SEED:%d] [WORKERS:%d] [DRAWS:%d]%s\n",
			green, s.Dist, rs.Engine, s.Seed(), cfg.worker, rs.N, reset)
	}

	var (
		rep  *stats.SampleReport
		est  *stats.BatchReport
		used time.Duration
	)
	switch {
	case cfg.batches > 0:
		rep, est, used, err = s.SimBatches(cfg.worker, cfg.batches, rs.N, showpb)
	case cfg.worker == 1:
		rep, used, err = s.Sim(rs.N, showpb)
	default:
		rep, used, err = s.SimMP(rs.N, cfg.worker, showpb)
	}
	if err != nil {
		log.Fatal(err)
	}
	if err := write(os.Stdout, rep, est, used); err != nil {
		log.Fatal(err)
	}
}

// setting 以預設為底，命令列參數覆寫。
func (cfg *config) setting(lab *ranlab.Lab) (*spec.RunSetting, error) {
	if cfg.worker < 1 {
		return nil, fmt.Errorf("value err : workers must > 0")
	}
	if cfg.batches < 0 {
		return nil, fmt.Errorf("value err : batches must >= 0")
	}
	var rs *spec.RunSetting
	switch {
	case cfg.preset != "" && cfg.dist != "":
		return nil, fmt.Errorf("-preset and -dist are mutually exclusive")
	case cfg.preset != "":
		p, err := lab.Setting(cfg.preset)
		if err != nil {
			return nil, err
		}
		rs = p
	case cfg.dist != "":
		rs = &spec.RunSetting{Dist: cfg.dist}
	default:
		return nil, fmt.Errorf("-preset or -dist is required")
	}
	if cfg.params != "" {
		ps, err := spec.ParseParams(cfg.params)
		if err != nil {
			return nil, err
		}
		if rs.Params == nil {
			rs.Params = map[string]float64{}
		}
		for k, v := range ps {
			for old := range rs.Params {
				if strings.EqualFold(old, k) {
					delete(rs.Params, old)
				}
			}
			rs.Params[k] = v
		}
	}
	if cfg.engine != "" {
		rs.Engine = cfg.engine
	}
	if cfg.n != 0 {
		rs.N = cfg.n
	}
	if cfg.seed >= 0 {
		seed := cfg.seed
		rs.Seed = &seed
	}
	if cfg.meanMax != 0 {
		rs.MeanMax = cfg.meanMax
	}
	if cfg.bins > 0 {
		rs.Hist = &spec.HistSetting{Bins: cfg.bins, Min: cfg.min, Max: cfg.max}
	}
	if err := rs.Init(); err != nil {
		return nil, err
	}
	if rs.N < 1 {
		return nil, fmt.Errorf("value err : n must > 0")
	}
	return rs, nil
}

func write(w io.Writer, rep *stats.SampleReport, est *stats.BatchReport, used time.Duration) error {
	switch cfg.out {
	case "json":
		rep.Done()
		return json.NewEncoder(w).Encode(struct {
			Report  *stats.SampleReport `json:"report"`
			Batches *stats.BatchReport  `json:"batches,omitempty"`
			UsedMs  int64               `json:"used_ms"`
		}{rep, est, used.Milliseconds()})
	case "yaml":
		if err := rep.WriteWith(w, &stats.YAMLSampleReportRender{}); err != nil {
			return err
		}
	default:
		if err := rep.WriteWith(w, &stats.TableSampleReportRender{Elapsed: used, BarWidth: 50}); err != nil {
			return err
		}
	}
	if est != nil && cfg.out != "json" {
		return est.WriteTable(w, "batches")
	}
	return nil
}

func listAll(w io.Writer, lab *ranlab.Lab) {
	fmt.Fprintln(w, "presets:")
	for _, s := range lab.Summary() {
		fmt.Fprintf(w, "  %-18s %-14s %s\n", s.Name, s.Dist, s.Desc)
	}
	fmt.Fprintln(w, "distributions:")
	for _, d := range dist.Catalog() {
		names := make([]string, len(d.Params))
		for i, p := range d.Params {
			if p.Default != nil {
				names[i] = fmt.Sprintf("%s=%g", p.Name, *p.Default)
			} else {
				names[i] = p.Name
			}
		}
		fmt.Fprintf(w, "  %-14s %s\n", d.Name, strings.Join(names, ","))
	}
	fmt.Fprintf(w, "engines: %s (default %s)\n", strings.Join(core.EngineNames(), ", "), lab.DefaultEngine())
}
