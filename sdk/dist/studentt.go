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

// StudentTParams 自由度 A。
type StudentTParams struct {
	A float64
}

func DefaultStudentTParams() StudentTParams { return StudentTParams{A: 1} }

// Bailey 極座標法。a < 0 回傳 StudentTInvalid。
func studentT(e core.Engine, a float64) float64 {
	if a < 0.0 {
		return StudentTInvalid
	}
	var u, v, w float64
	for {
		u = 2.0*e.Flat() - 1.0
		v = 2.0*e.Flat() - 1.0
		w = u*u + v*v
		if w <= 1.0 {
			break
		}
	}
	return u * math.Sqrt(a*(math.Exp(-2.0/a*math.Log(w))-1.0)/w)
}

func ShootStudentT(e core.Engine, p StudentTParams) float64 {
	return studentT(engineOr(e), p.A)
}

type StudentT struct {
	e core.Engine
	p StudentTParams
}

func NewStudentT(e core.Engine, p StudentTParams) *StudentT {
	return &StudentT{e: engineOr(e), p: p}
}

func (s *StudentT) Params() StudentTParams { return s.p }

func (s *StudentT) Fire() float64 { return studentT(s.e, s.p.A) }

func (s *StudentT) FireWith(p StudentTParams) float64 { return studentT(s.e, p.A) }

func (s *StudentT) FireArray(n int) []float64 { return Fill(s, n) }
