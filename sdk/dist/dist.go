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

// Package dist 提供建立在 core.Engine 之上的非均勻分佈取樣器。
//
// 每個分佈都有兩種用法：
//   - 一次性：ShootXxx(engine, params)，每次呼叫使用全新的暫存（不保留任何狀態）。
//   - 有狀態：NewXxx(engine, params) 取得取樣器實例，Fire / FireWith / FireArray 反覆取樣。
//     實例持有自己的參數預處理暫存，參數不變時不會重算。
//
// 兩種用法共用同一份演算法本體，相同引擎狀態下輸出完全一致
// （Gauss 例外：實例會保留成對產生的第二個常態值）。
//
// 取樣器不回傳 error：參數不合法時回傳哨兵值（Invalid 或 math.MaxFloat64），
// 由呼叫端自行判斷。取樣器與引擎皆非 goroutine-safe。
package dist

import (
	"log/slog"
	"math"

	"github.com/zintix-labs/ranlab/sdk/core"
)

// Invalid 為 Binomial / ChiSquare / Gamma 參數不合法時回傳的哨兵值。
const Invalid = -1.0

// StudentTInvalid 為 StudentT 自由度為負時回傳的哨兵值。
const StudentTInvalid = math.MaxFloat64

// Sampler 為批次填充使用的最小介面。
type Sampler interface {
	Fire() float64
}

// Fill 依序取 n 個值。n <= 0 回傳空切片。
func Fill(s Sampler, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	FillInto(s, out)
	return out
}

// FillInto 以 s 的連續輸出填滿 dst。
func FillInto(s Sampler, dst []float64) {
	for i := range dst {
		dst[i] = s.Fire()
	}
}

// engineOr 在 e 為 nil 時建立新的 RANMAR 引擎（seed 不可重現）。
func engineOr(e core.Engine) core.Engine {
	if e != nil {
		return e
	}
	fresh := core.NewDefault()
	slog.Debug("no engine supplied, created fresh ranmar engine", "seed", fresh.Seed())
	return fresh
}

// polar 以 Marsaglia 極座標法取得一對單位圓內的點與比例因子，
// v1*fac 與 v2*fac 為兩個獨立的標準常態值。r 必須落在 (0,1]。
func polar(e core.Engine) (v1, v2, fac float64) {
	var r float64
	for {
		v1 = 2.0*e.Flat() - 1.0
		v2 = 2.0*e.Flat() - 1.0
		r = v1*v1 + v2*v2
		if r > 0 && r <= 1.0 {
			break
		}
	}
	fac = math.Sqrt(-2.0 * math.Log(r) / r)
	return v1, v2, fac
}
