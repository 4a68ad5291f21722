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

package core

// JamesRandom 為 Marsaglia-Zaman (RANMAR) 均勻亂數產生器，
// 由 97 格的延遲 Fibonacci 序列與一個算術進位序列組合而成，輸出精度為 24 bits。
//
// 初始化採用 F. James 的單一 seed 版本：seed 拆成 ij = seed/30082 與 kl = seed%30082，
// 再由 ij、kl 導出四個小整數 i, j, k, l 填滿 97 格狀態。
type JamesRandom struct {
	u    [97]float64
	c    float64
	cd   float64
	cm   float64
	i97  int
	j97  int
	seed int64
}

const (
	ranmarC  = 362436.0 / 16777216.0
	ranmarCD = 7654321.0 / 16777216.0
	ranmarCM = 16777213.0 / 16777216.0
)

// NewJamesRandom 以指定 seed 建立 RANMAR 引擎，負數 seed 取絕對值。
func NewJamesRandom(seed int64) *JamesRandom {
	r := &JamesRandom{}
	r.SetSeed(seed)
	return r
}

// Name 回傳引擎名稱。
func (r *JamesRandom) Name() string { return EngineRanmar }

// Seed 回傳最後一次初始化的 seed（已轉為非負）。
func (r *JamesRandom) Seed() int64 { return r.seed }

// SetSeed 重設 97 格狀態與進位序列。全程使用整數運算。
func (r *JamesRandom) SetSeed(seed int64) {
	seed = normSeed(EngineRanmar, seed)
	r.seed = seed

	ij := seed / 30082
	kl := seed - 30082*ij
	i := (ij/177)%177 + 2
	j := ij%177 + 2
	k := (kl/169)%178 + 1
	l := kl % 169

	for n := 0; n < 97; n++ {
		s := 0.0
		t := 0.5
		for m := 0; m < 24; m++ {
			mm := ((i*j)%179*k)%179
			i = j
			j = k
			k = mm
			l = (53*l + 1) % 169
			if (l*mm)%64 >= 32 {
				s += t
			}
			t *= 0.5
		}
		r.u[n] = s
	}
	r.c = ranmarC
	r.cd = ranmarCD
	r.cm = ranmarCM
	r.i97 = 96
	r.j97 = 32
}

// Flat 回傳 (0,1) 的均勻亂數。
// 0 與 1 會被重抽，每次重抽都會推進索引與進位。
func (r *JamesRandom) Flat() float64 {
	for {
		uni := r.u[r.i97] - r.u[r.j97]
		if uni < 0 {
			uni++
		}
		r.u[r.i97] = uni

		if r.i97 == 0 {
			r.i97 = 96
		} else {
			r.i97--
		}
		if r.j97 == 0 {
			r.j97 = 96
		} else {
			r.j97--
		}

		r.c -= r.cd
		if r.c < 0 {
			r.c += r.cm
		}

		uni -= r.c
		if uni < 0 {
			uni++
		}
		if uni > 0 && uni < 1 {
			return uni
		}
	}
}

// FlatArray 連續取 n 個亂數。
func (r *JamesRandom) FlatArray(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	fill(r, out)
	return out
}

// FillFlat 以連續亂數填滿 dst。
func (r *JamesRandom) FillFlat(dst []float64) {
	fill(r, dst)
}
