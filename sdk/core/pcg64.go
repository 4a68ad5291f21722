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

import (
	r2 "math/rand/v2"
)

// PCG64 以標準庫的 PCG 作為替代引擎，輸出 52 bits 精度的 (0,1) 亂數。
// 序列與 RANMAR 不同，只保證自身的可重現性。
type PCG64 struct {
	rng  *r2.PCG
	seed int64
}

// NewPCG64 以指定 seed 建立 PCG64 引擎，負數 seed 取絕對值。
func NewPCG64(seed int64) *PCG64 {
	r := &PCG64{}
	r.SetSeed(seed)
	return r
}

// Name 回傳引擎名稱。
func (r *PCG64) Name() string { return EnginePCG64 }

// Seed 回傳最後一次初始化的 seed。
func (r *PCG64) Seed() int64 { return r.seed }

// SetSeed 以 splitmix64 展開 seed 為 128-bit 狀態。
func (r *PCG64) SetSeed(seed int64) {
	seed = normSeed(EnginePCG64, seed)
	r.seed = seed
	x := uint64(seed) ^ 0x9e3779b97f4a7c15
	hi := splitmix64(x)
	lo := splitmix64(x ^ 0xDA942042E4DD58B5)
	if r.rng == nil {
		r.rng = r2.NewPCG(hi, lo)
		return
	}
	r.rng.Seed(hi, lo)
}

// Uint64 回傳 64-bit 原始輸出。
func (r *PCG64) Uint64() uint64 {
	return r.rng.Uint64()
}

// Flat 取高 52 bits 並平移半格，結果落在 [2^-53, 1-2^-53]，不會碰到 0 或 1。
func (r *PCG64) Flat() float64 {
	return (float64(r.rng.Uint64()>>12) + 0.5) / (1 << 52)
}

// FlatArray 連續取 n 個亂數。
func (r *PCG64) FlatArray(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	fill(r, out)
	return out
}

// FillFlat 以連續亂數填滿 dst。
func (r *PCG64) FillFlat(dst []float64) {
	fill(r, dst)
}

// splitmix64 將輸入值混洗成新的 64-bit 狀態，用於種子展開。
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
