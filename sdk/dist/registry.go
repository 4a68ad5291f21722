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

package dist

import (
	"math"
	"strings"

	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/sdk/core"
)

// 分佈名稱（批次填充合約使用的正式名稱）。
const (
	NameFlat          = "Flat"
	NameBit           = "Bit"
	NameGauss         = "Gauss"
	NameExponential   = "Exponential"
	NameGamma         = "Gamma"
	NamePoisson       = "Poisson"
	NameChiSquare     = "ChiSquare"
	NameStudentT      = "StudentT"
	NameBreitWigner   = "BreitWigner"
	NameBreitWignerM2 = "BreitWignerM2"
	NameBinomial      = "Binomial"
)

// ParamInfo 描述一個具名參數。Default 為 nil 表示預設不設定（例如 BreitWigner 的 cut）。
type ParamInfo struct {
	Name    string   `json:"name" yaml:"name"`
	Default *float64 `json:"default,omitempty" yaml:"default,omitempty"`
}

// Info 描述一個分佈與其參數。
type Info struct {
	Name   string      `json:"name" yaml:"name"`
	Params []ParamInfo `json:"params" yaml:"params"`
}

type builder func(e core.Engine, p params) (Sampler, error)

type entry struct {
	info  Info
	build builder
}

func def(v float64) *float64 { return &v }

func param(name string, d float64) ParamInfo { return ParamInfo{Name: name, Default: def(d)} }

var registry = []entry{
	{
		info: Info{Name: NameFlat, Params: []ParamInfo{param("a", 0), param("b", 1)}},
		build: func(e core.Engine, p params) (Sampler, error) {
			return NewFlat(e, FlatParams{A: p.get("a"), B: p.get("b")}), nil
		},
	},
	{
		info: Info{Name: NameBit, Params: []ParamInfo{}},
		build: func(e core.Engine, p params) (Sampler, error) {
			return NewBit(e), nil
		},
	},
	{
		info: Info{Name: NameGauss, Params: []ParamInfo{param("mean", 0), param("stdDev", 1)}},
		build: func(e core.Engine, p params) (Sampler, error) {
			return NewGauss(e, GaussParams{Mean: p.get("mean"), StdDev: p.get("stdDev")}), nil
		},
	},
	{
		info: Info{Name: NameExponential, Params: []ParamInfo{param("mean", 1)}},
		build: func(e core.Engine, p params) (Sampler, error) {
			return NewExponential(e, ExponentialParams{Mean: p.get("mean")}), nil
		},
	},
	{
		info: Info{Name: NameGamma, Params: []ParamInfo{param("k", 1), param("lambda", 1)}},
		build: func(e core.Engine, p params) (Sampler, error) {
			return NewGamma(e, GammaParams{K: p.get("k"), Lambda: p.get("lambda")}), nil
		},
	},
	{
		info: Info{Name: NamePoisson, Params: []ParamInfo{param("mean", 1)}},
		build: func(e core.Engine, p params) (Sampler, error) {
			return NewPoisson(e, PoissonParams{Mean: p.get("mean")}), nil
		},
	},
	{
		info: Info{Name: NameChiSquare, Params: []ParamInfo{param("a", 1)}},
		build: func(e core.Engine, p params) (Sampler, error) {
			return NewChiSquare(e, ChiSquareParams{A: p.get("a")}), nil
		},
	},
	{
		info: Info{Name: NameStudentT, Params: []ParamInfo{param("a", 1)}},
		build: func(e core.Engine, p params) (Sampler, error) {
			return NewStudentT(e, StudentTParams{A: p.get("a")}), nil
		},
	},
	{
		info: Info{Name: NameBreitWigner, Params: []ParamInfo{param("mean", 1), param("gamma", 0.2), {Name: "cut"}}},
		build: func(e core.Engine, p params) (Sampler, error) {
			return NewBreitWigner(e, p.breitWigner()), nil
		},
	},
	{
		info: Info{Name: NameBreitWignerM2, Params: []ParamInfo{param("mean", 1), param("gamma", 0.2), {Name: "cut"}}},
		build: func(e core.Engine, p params) (Sampler, error) {
			return NewBreitWigner(e, p.breitWigner()).M2(), nil
		},
	},
	{
		info: Info{Name: NameBinomial, Params: []ParamInfo{param("n", 1), param("p", 0.5)}},
		build: func(e core.Engine, p params) (Sampler, error) {
			n := p.get("n")
			if n != math.Trunc(n) || math.Abs(n) > 1e18 {
				return nil, errs.ErrInvalidParam.Withf("Binomial n must be an integer, got %v", n)
			}
			return NewBinomial(e, BinomialParams{N: int64(n), P: p.get("p")}), nil
		},
	},
}

// params 為解析後的參數：先放預設值，再以呼叫端提供的值覆蓋。
// 是否提供以 key 存在與否判斷，0 是合法的明確值。
type params struct {
	vals map[string]float64
	set  map[string]bool
}

func (p params) get(name string) float64 { return p.vals[name] }

func (p params) has(name string) bool { return p.set[name] }

func (p params) breitWigner() BreitWignerParams {
	bw := BreitWignerParams{Mean: p.get("mean"), Gamma: p.get("gamma")}
	if p.has("cut") {
		bw = bw.WithCut(p.get("cut"))
	}
	return bw
}

func lookup(name string) (entry, bool) {
	for _, en := range registry {
		if strings.EqualFold(en.info.Name, strings.TrimSpace(name)) {
			return en, true
		}
	}
	return entry{}, false
}

// resolve 合併預設值與輸入參數，參數名稱不分大小寫。
// 兩個 key 折疊後指向同一參數（例如 mean 與 Mean）視為錯誤。
func resolve(en entry, in map[string]float64) (params, error) {
	p := params{vals: map[string]float64{}, set: map[string]bool{}}
	for _, pi := range en.info.Params {
		if pi.Default != nil {
			p.vals[pi.Name] = *pi.Default
		}
	}
	for k, v := range in {
		matched := false
		for _, pi := range en.info.Params {
			if strings.EqualFold(pi.Name, k) {
				if p.set[pi.Name] {
					return params{}, errs.ErrInvalidParam.Withf("%s parameter %q given more than once", en.info.Name, pi.Name)
				}
				p.vals[pi.Name] = v
				p.set[pi.Name] = true
				matched = true
				break
			}
		}
		if !matched {
			return params{}, errs.ErrUnknownParam.Withf("%s has no parameter %q", en.info.Name, k)
		}
	}
	return p, nil
}

// New 依分佈名稱與具名參數建立取樣器，e 為 nil 時使用新的 RANMAR 引擎。
// 名稱與參數名稱不分大小寫；未提供的參數使用預設值。
func New(name string, e core.Engine, in map[string]float64) (Sampler, error) {
	en, ok := lookup(name)
	if !ok {
		return nil, errs.ErrUnknownDist.With(name)
	}
	p, err := resolve(en, in)
	if err != nil {
		return nil, err
	}
	return en.build(e, p)
}

// Resolve 回傳正式名稱與合併預設值後的參數表。沒有預設值且未提供的參數（cut）不會出現。
func Resolve(name string, in map[string]float64) (string, map[string]float64, error) {
	en, ok := lookup(name)
	if !ok {
		return "", nil, errs.ErrUnknownDist.With(name)
	}
	p, err := resolve(en, in)
	if err != nil {
		return "", nil, err
	}
	return en.info.Name, p.vals, nil
}

// Validate 只檢查名稱與參數，以回放引擎試建取樣器，不消耗任何真實引擎。
func Validate(name string, in map[string]float64) error {
	_, err := New(name, core.NewScripted(), in)
	return err
}

// CanonicalName 回傳正式名稱，找不到時回傳空字串。
func CanonicalName(name string) string {
	if en, ok := lookup(name); ok {
		return en.info.Name
	}
	return ""
}

// Names 依註冊順序回傳所有分佈名稱。
func Names() []string {
	out := make([]string, 0, len(registry))
	for _, en := range registry {
		out = append(out, en.info.Name)
	}
	return out
}

// Describe 回傳分佈的參數說明。
func Describe(name string) (Info, error) {
	en, ok := lookup(name)
	if !ok {
		return Info{}, errs.ErrUnknownDist.With(name)
	}
	return en.info, nil
}

// Catalog 回傳所有分佈的說明。
func Catalog() []Info {
	out := make([]Info, 0, len(registry))
	for _, en := range registry {
		out = append(out, en.info)
	}
	return out
}
