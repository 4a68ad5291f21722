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

	"github.com/zintix-labs/ranlab/sdk/core"
)

type ExponentialParams struct {
	Mean float64
}

func DefaultExponentialParams() ExponentialParams { return ExponentialParams{Mean: 1} }

// ShootExponential 反函數法：-ln(Flat()) * mean。不檢查參數。
func ShootExponential(e core.Engine, p ExponentialParams) float64 {
	return -math.Log(engineOr(e).Flat()) * p.Mean
}

type Exponential struct {
	e core.Engine
	p ExponentialParams
}

func NewExponential(e core.Engine, p ExponentialParams) *Exponential {
	return &Exponential{e: engineOr(e), p: p}
}

func (x *Exponential) Params() ExponentialParams { return x.p }

func (x *Exponential) Fire() float64 { return ShootExponential(x.e, x.p) }

func (x *Exponential) FireWith(p ExponentialParams) float64 { return ShootExponential(x.e, p) }

func (x *Exponential) FireArray(n int) []float64 { return Fill(x, n) }
