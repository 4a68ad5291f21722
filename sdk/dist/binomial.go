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

// BinomialParams 試驗次數 N 與成功機率 P。
type BinomialParams struct {
	N int64
	P float64
}

func DefaultBinomialParams() BinomialParams { return BinomialParams{N: 1, P: 0.5} }

const (
	binC1_3  = 0.33333333333333333
	binC5_8  = 0.62500000000000000
	binC1_6  = 0.16666666666666667
	binDMaxK = 20
)

// n*min(p,1-p) 低於此值使用逆轉換法
const binInversionNP = 10.0

// binomialSetup 以 (n, p) 為鍵保存 BTPE 的區域參數。
// ch（Stirling 最終檢定的常數項）另以 (n, par) 為鍵，只在需要時計算。
type binomialSetup struct {
	n  int64
	p  float64
	ok bool

	par, np, p0, q, pq, rc, ss float64
	xm, xl, xr, ll, lr, c      float64
	p1, p2, p3, p4             float64
	b, m                       int64

	chN   int64
	chPar float64
	chOK  bool
	ch    float64
	nm    int64
}

func (st *binomialSetup) prepare(n int64, p float64) {
	st.n, st.p, st.ok = n, p, true
	st.par = math.Min(p, 1.0-p)
	st.q = 1.0 - st.par
	st.np = float64(n) * st.par
	if st.np <= 0.0 {
		return
	}
	rm := st.np + st.par
	st.m = int64(rm)
	if st.np < binInversionNP {
		st.p0 = math.Exp(float64(n) * math.Log(st.q))
		bh := int64(st.np + 10.0*math.Sqrt(st.np*st.q))
		st.b = min(n, bh)
		return
	}
	st.pq = st.par / st.q
	st.rc = (float64(n) + 1.0) * st.pq
	st.ss = st.np * st.q
	i := int64(2.195*math.Sqrt(st.ss) - 4.6*st.q)
	st.xm = float64(st.m) + 0.5
	st.xl = float64(st.m - i)
	st.xr = float64(st.m + i + 1)
	f := (rm - st.xl) / (rm - st.xl*st.par)
	st.ll = f * (1.0 + 0.5*f)
	f = (st.xr - rm) / (st.xr * st.q)
	st.lr = f * (1.0 + 0.5*f)
	st.c = 0.134 + 20.5/(15.3+float64(st.m))
	st.p1 = float64(i) + 0.5
	st.p2 = st.p1 * (1.0 + st.c + st.c)
	st.p3 = st.p2 + st.c/st.ll
	st.p4 = st.p3 + st.c/st.lr
}

// binomial 為 Kachitvichyanukul & Schmeiser 的 BTPE，並依 Hörmann 修改 Stirling 檢定。
//   - n*min(p,1-p) < 10：從 0 開始 chop-down 逆轉換，累積機率不顯式計算。
//   - 其餘：中央均勻、兩側指數的 hat 函數，中央三角區直接接受。
//
// p > 0.5 時以 1-p 取樣再回傳 n-K。n*min(p,1-p) <= 0 回傳 Invalid。
func binomial(e core.Engine, n int64, p float64, st *binomialSetup) float64 {
	if !st.ok || n != st.n || p != st.p {
		st.prepare(n, p)
	}
	if !(st.np > 0.0) {
		return Invalid
	}
	mirror := func(k int64) float64 {
		if p > 0.5 {
			return float64(n - k)
		}
		return float64(k)
	}

	if st.np < binInversionNP {
		var k int64
		pk := st.p0
		u := e.Flat()
		for u > pk {
			k++
			if k > st.b {
				u = e.Flat()
				k = 0
				pk = st.p0
			} else {
				u -= pk
				pk = (float64(n-k+1) * st.par * pk) / (float64(k) * st.q)
			}
		}
		return mirror(k)
	}

	var k int64
	for {
		v := e.Flat()
		u := e.Flat() * st.p4
		if u <= st.p1 {
			// 三角區
			k = int64(st.xm - u + st.p1*v)
			return mirror(k)
		}
		switch {
		case u <= st.p2:
			// 平行四邊形
			x := st.xl + (u-st.p1)/st.c
			v = v*st.c + 1.0 - math.Abs(st.xm-x)/st.p1
			if v >= 1.0 {
				continue
			}
			k = int64(x)
		case u <= st.p3:
			// 左尾
			x := st.xl + math.Log(v)/st.ll
			if x < 0.0 {
				continue
			}
			k = int64(x)
			v *= (u - st.p2) * st.ll
		default:
			// 右尾
			k = int64(st.xr - math.Log(v)/st.lr)
			if k > n {
				continue
			}
			v *= (u - st.p3) * st.lr
		}

		km := k - st.m
		if km < 0 {
			km = -km
		}
		if km <= binDMaxK || float64(km+km+2) >= st.ss {
			// 從眾數遞推 f(K)
			f := 1.0
			if st.m < k {
				for i := st.m; i < k; {
					i++
					f *= st.rc/float64(i) - st.pq
					if f < v {
						break
					}
				}
			} else {
				for i := k; i < st.m; {
					i++
					v *= st.rc/float64(i) - st.pq
					if v > f {
						break
					}
				}
			}
			if v <= f {
				break
			}
			continue
		}

		// 以 log p(K) 的上下界做 squeeze
		v = math.Log(v)
		fkm := float64(km)
		t := -float64(km*km) / (st.ss + st.ss)
		ee := (fkm / st.ss) * ((fkm*(fkm*binC1_3+binC5_8)+binC1_6)/st.ss + 0.5)
		if v <= t-ee {
			break
		}
		if v <= t+ee {
			if !st.chOK || st.chN != n || st.chPar != st.par {
				st.chN, st.chPar, st.chOK = n, st.par, true
				st.nm = n - st.m + 1
				st.ch = st.xm*math.Log((float64(st.m)+1.0)/(st.pq*float64(st.nm))) +
					StirlingCorrection(st.m+1) + StirlingCorrection(st.nm)
			}
			nk := n - k + 1
			// Stirling 公式計算 log f(K) 的最終檢定
			if v <= st.ch+
				(float64(n)+1.0)*math.Log(float64(st.nm)/float64(nk))+
				(float64(k)+0.5)*math.Log(float64(nk)*st.pq/(float64(k)+1.0))-
				StirlingCorrection(k+1)-
				StirlingCorrection(nk) {
				break
			}
		}
	}
	return mirror(k)
}

// ShootBinomial 一次性取樣。
func ShootBinomial(e core.Engine, p BinomialParams) float64 {
	var st binomialSetup
	return binomial(engineOr(e), p.N, p.P, &st)
}

type Binomial struct {
	e  core.Engine
	p  BinomialParams
	st binomialSetup
}

func NewBinomial(e core.Engine, p BinomialParams) *Binomial {
	return &Binomial{e: engineOr(e), p: p}
}

func (b *Binomial) Params() BinomialParams { return b.p }

func (b *Binomial) Fire() float64 { return binomial(b.e, b.p.N, b.p.P, &b.st) }

func (b *Binomial) FireWith(p BinomialParams) float64 { return binomial(b.e, p.N, p.P, &b.st) }

func (b *Binomial) FireArray(n int) []float64 { return Fill(b, n) }
