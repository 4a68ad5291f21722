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

// Package ranlab 提供亂數實驗室的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Lab 把三個地基組裝在一起：
//  1. Catalog：預設取樣設定的目錄，定義有哪些預設、各自對應的設定檔名稱。
//  2. Factory：亂數引擎工廠，相同 seed 產生相同序列，保證可重現。
//  3. Logger：*slog.Logger，組裝與執行期的事件紀錄。
//
// Lab 本身不綁定任何「檔案路徑」概念：設定檔來源一律以 fs.FS 的形式注入。
//
// 典型使用情境：
//   - 後端服務（HTTP）：由 Lab 建立 Runtime，從引擎池借出引擎填值。
//   - 模擬器（sim）：由 Lab 建立 Simulator，單線或多線大量取樣並產出報表。
package ranlab

import (
	"io/fs"
	"log/slog"
	"strings"

	"github.com/zintix-labs/ranlab/catalog"
	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/sdk/core"
	"github.com/zintix-labs/ranlab/sdk/dist"
	"github.com/zintix-labs/ranlab/spec"
)

// Presets 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
//
// 可以用 go:embed 把設定編進 binary，也可以用 os.DirFS 在本機開發時讀取目錄。
func Presets(src ...fs.FS) []fs.FS {
	return src
}

// Option 設定 Lab 的選用項目。
type Option func(*Lab)

// WithLogger 指定 logger，nil 時沿用 slog.Default()。
func WithLogger(l *slog.Logger) Option {
	return func(lab *Lab) {
		if l != nil {
			lab.log = l
		}
	}
}

// Lab 是組裝器與運行入口。
//
// 使用流程分成兩階段：
//   - 註冊階段：建立 catalog，註冊預設並檢查重複。
//   - 執行階段：Freeze 之後依預設名稱或自訂設定建立 Simulator / Runtime。
//
// 預設名稱的唯一性只保證在同一個 Lab instance 內。
type Lab struct {
	cat *catalog.Catalog
	cf  core.Factory
	log *slog.Logger
	sum []catalog.Summary
}

// New 建立一個 Lab instance（註冊階段）。
//
// cf 為未指定引擎時使用的工廠；presets 至少一個來源。
func New(cf core.Factory, presets []fs.FS, opts ...Option) (*Lab, error) {
	if cf == nil {
		return nil, errs.NewFatal("engine factory required")
	}
	if len(presets) == 0 {
		return nil, errs.NewFatal("presets required")
	}
	cata, err := catalog.New(presets...)
	if err != nil {
		return nil, err
	}
	lab := &Lab{
		cat: cata,
		cf:  cf,
		log: slog.Default(),
	}
	for _, o := range opts {
		o(lab)
	}
	return lab, nil
}

// NewAuto 建立一個直接進入執行階段的 Lab：註冊全部預設並 Freeze。
func NewAuto(cf core.Factory, presets []fs.FS, opts ...Option) (*Lab, error) {
	lab, err := New(cf, presets, opts...)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	if err := lab.Freeze(); err != nil {
		return nil, err
	}
	return lab, nil
}

func (l *Lab) Register(ents ...catalog.Entry) error {
	return l.cat.Register(ents...)
}

// RegisterAll 掃描所有設定檔來源，以設定內宣告的 name 批次註冊。
// 任一檔案失敗立即回傳，且不會留下半完成的 catalog。
func (l *Lab) RegisterAll() error {
	if err := l.cat.RegisterAll(); err != nil {
		return err
	}
	l.log.Debug("presets registered", "count", len(l.cat.Names()))
	return nil
}

// Freeze 結束註冊階段並快取摘要。
func (l *Lab) Freeze() error {
	l.cat.Freeze()
	sum, err := l.cat.Summaries()
	if err != nil {
		return err
	}
	l.sum = sum
	l.log.Info("lab frozen", "presets", len(sum), "engine", l.cf.Name())
	return nil
}

func (l *Lab) IsFrozen() bool {
	return l.cat.IsFrozen()
}

func (l *Lab) EntryByName(name string) (catalog.Entry, bool) {
	return l.cat.GetByName(name)
}

func (l *Lab) Names() []string {
	return l.cat.Names()
}

// Summary 回傳 Freeze 時快取的預設摘要副本。
func (l *Lab) Summary() []catalog.Summary {
	return append([]catalog.Summary(nil), l.sum...)
}

func (l *Lab) Logger() *slog.Logger {
	return l.log
}

// DefaultEngine 回傳預設引擎名稱。
func (l *Lab) DefaultEngine() string {
	return l.cf.Name()
}

// Factory 依名稱取得引擎工廠，空字串回傳 Lab 的預設工廠。
func (l *Lab) Factory(engine string) (core.Factory, error) {
	if strings.TrimSpace(engine) == "" {
		return l.cf, nil
	}
	return core.FactoryByName(engine)
}

// NewEngine 以指定引擎與 seed 建立引擎。
func (l *Lab) NewEngine(engine string, seed int64) (core.Engine, error) {
	f, err := l.Factory(engine)
	if err != nil {
		return nil, err
	}
	return f.New(seed), nil
}

// NewSampler 依設定建立取樣器並綁定引擎 e。mean_max 只對 Poisson 有效。
func (l *Lab) NewSampler(rs *spec.RunSetting, e core.Engine) (dist.Sampler, error) {
	if rs == nil {
		return nil, errs.NewFatal("nil run setting")
	}
	s, err := dist.New(rs.Dist, e, rs.Params)
	if err != nil {
		return nil, err
	}
	if rs.MeanMax > 0 {
		if p, ok := s.(interface{ SetMeanMax(float64) }); ok {
			p.SetMeanMax(rs.MeanMax)
		}
	}
	return s, nil
}

// Fill 依設定產生 rs.N 筆樣本，回傳樣本與實際使用的 seed。
// 設定沒有 seed 時以加密亂數產生。
func (l *Lab) Fill(rs *spec.RunSetting) ([]float64, int64, error) {
	if rs == nil {
		return nil, 0, errs.NewFatal("nil run setting")
	}
	seed := rs.SeedOr(core.RandomSeed())
	e, err := l.NewEngine(rs.Engine, seed)
	if err != nil {
		return nil, 0, err
	}
	s, err := l.NewSampler(rs, e)
	if err != nil {
		return nil, 0, err
	}
	return dist.Fill(s, rs.N), e.Seed(), nil
}

// Setting 取得預設設定（新的副本）。
func (l *Lab) Setting(name string) (*spec.RunSetting, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("lab is not frozen yet")
	}
	return l.cat.RunSettingByName(name)
}

// NewSimulator 以設定建立模擬器。設定沒有 seed 時產生一個並回寫，報表可據此重現。
func (l *Lab) NewSimulator(rs *spec.RunSetting) (*Simulator, error) {
	if rs == nil {
		return nil, errs.NewFatal("nil run setting")
	}
	return l.NewSimulatorWithSeed(rs, rs.SeedOr(core.RandomSeed()))
}

// NewSimulatorWithSeed 以指定 seed 建立模擬器，覆寫設定內的 seed。
func (l *Lab) NewSimulatorWithSeed(rs *spec.RunSetting, seed int64) (*Simulator, error) {
	if rs == nil {
		return nil, errs.NewFatal("nil run setting")
	}
	rs = rs.Clone()
	if err := rs.Init(); err != nil {
		return nil, err
	}
	f, err := l.Factory(rs.Engine)
	if err != nil {
		return nil, err
	}
	rs.Seed = &seed
	return newSimulator(l, rs, f, seed)
}

// NewSimulatorByName 以預設名稱建立模擬器。
func (l *Lab) NewSimulatorByName(name string) (*Simulator, error) {
	rs, err := l.Setting(name)
	if err != nil {
		return nil, err
	}
	return l.NewSimulator(rs)
}

// NewSimulatorByYAML 以 YAML 設定內容建立模擬器（不需事先註冊）。
func (l *Lab) NewSimulatorByYAML(raw []byte) (*Simulator, error) {
	rs, err := spec.GetRunSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	return l.NewSimulator(rs)
}

// NewSimulatorByJSON 以 JSON 設定內容建立模擬器（不需事先註冊）。
func (l *Lab) NewSimulatorByJSON(raw []byte) (*Simulator, error) {
	rs, err := spec.GetRunSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	return l.NewSimulator(rs)
}

// BuildRuntime 為每一種引擎建立固定大小的引擎池，供服務端使用。
func (l *Lab) BuildRuntime(poolSize int) (*Runtime, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("lab is not frozen yet")
	}
	return newRuntime(l, poolSize)
}
