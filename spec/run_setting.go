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
	"fmt"
	"maps"
	"strings"

	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/hist"
	"github.com/zintix-labs/ranlab/sdk/core"
	"github.com/zintix-labs/ranlab/sdk/dist"
)

// DefaultN 未指定樣本數時使用的預設值。
const DefaultN = 10000

// RunSetting 描述一次取樣：分佈、參數、樣本數、引擎與 seed，以及選用的直方圖設定。
//
// Seed 為 nil 表示未指定，由上層產生並回寫，確保結果可重現。
type RunSetting struct {
	Name    string             `yaml:"name"     json:"name"`
	Desc    string             `yaml:"desc"     json:"desc,omitempty"`
	Dist    string             `yaml:"dist"     json:"dist"`
	N       int                `yaml:"n"        json:"n"`
	Seed    *int64             `yaml:"seed"     json:"seed,omitempty"`
	Engine  string             `yaml:"engine"   json:"engine,omitempty"`
	Params  map[string]float64 `yaml:"params"   json:"params,omitempty"`
	MeanMax float64            `yaml:"mean_max" json:"mean_max,omitempty"`
	Hist    *HistSetting       `yaml:"hist"     json:"hist,omitempty"`
}

// HistSetting 直方圖分箱設定，區間為 [Min, Max)。
type HistSetting struct {
	Bins int     `yaml:"bins" json:"bins"`
	Min  float64 `yaml:"min"  json:"min"`
	Max  float64 `yaml:"max"  json:"max"`
}

// init 補預設值並正規化名稱，再做檢查。
func (rs *RunSetting) init() error {
	rs.Dist = strings.TrimSpace(rs.Dist)
	if canon := dist.CanonicalName(rs.Dist); canon != "" {
		rs.Dist = canon
	}
	if rs.N == 0 {
		rs.N = DefaultN
	}
	if rs.Engine == "" {
		rs.Engine = core.EngineRanmar
	}
	rs.Engine = strings.ToLower(strings.TrimSpace(rs.Engine))
	if rs.Name == "" {
		rs.Name = strings.ToLower(rs.Dist)
	}
	return rs.valid()
}

// valid 執行基本檢查，所有錯誤皆為 Warn 等級（設定內容問題）。
func (rs *RunSetting) valid() error {
	if rs.Dist == "" {
		return errs.NewWarn(fmt.Sprintf("run: %s err:empty dist", rs.Name))
	}
	if err := dist.Validate(rs.Dist, rs.Params); err != nil {
		return errs.Wrap(err, fmt.Sprintf("run: %s err:invalid dist", rs.Name))
	}
	if rs.N < 0 {
		return errs.ErrInvalidCount.Withf("run: %s n=%d", rs.Name, rs.N)
	}
	if _, err := core.FactoryByName(rs.Engine); err != nil {
		return errs.Wrap(err, fmt.Sprintf("run: %s err:invalid engine", rs.Name))
	}
	if rs.MeanMax < 0 {
		return errs.NewWarn(fmt.Sprintf("run: %s err:negative mean_max", rs.Name))
	}
	if h := rs.Hist; h != nil {
		if h.Bins < 1 || h.Bins > hist.MaxBins {
			return errs.NewWarn(fmt.Sprintf("run: %s err:hist bins must be in [1,%d]", rs.Name, hist.MaxBins))
		}
		if !(h.Min < h.Max) {
			return errs.NewWarn(fmt.Sprintf("run: %s err:hist min %v must be < max %v", rs.Name, h.Min, h.Max))
		}
	}
	return nil
}

// Init 給程式內直接組出的設定使用（CLI、HTTP），與解碼後的流程相同。
func (rs *RunSetting) Init() error {
	return rs.init()
}

// Clone 深拷貝，Params、Seed 與 Hist 不共用。
func (rs *RunSetting) Clone() *RunSetting {
	c := *rs
	c.Params = maps.Clone(rs.Params)
	if rs.Seed != nil {
		s := *rs.Seed
		c.Seed = &s
	}
	if rs.Hist != nil {
		h := *rs.Hist
		c.Hist = &h
	}
	return &c
}

// SeedOr 回傳設定的 seed，未設定時回傳 fallback。
func (rs *RunSetting) SeedOr(fallback int64) int64 {
	if rs.Seed == nil {
		return fallback
	}
	return *rs.Seed
}

// WithN 回傳樣本數改為 n 的副本。
func (rs *RunSetting) WithN(n int) *RunSetting {
	c := rs.Clone()
	c.N = n
	return c
}
