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
	"crypto/rand"
	"log/slog"
	"math"
	"math/big"
	"strings"

	"github.com/zintix-labs/ranlab/errs"
)

// DefaultSeed 為未指定 seed 時 RANMAR 使用的初始值。
const DefaultSeed int64 = 19780503

// Engine 定義均勻亂數引擎。所有分佈取樣器只透過 Flat 取得亂數。
//
// 合約：
//   - Flat 回傳的值嚴格落在 (0,1)，永遠不會是 0 或 1。
//   - 相同實作、相同 seed，輸出序列必須完全相同。
//   - 引擎不是 goroutine-safe，同一個引擎只能由單一 goroutine 使用。
type Engine interface {
	// Flat 回傳 (0,1) 的均勻亂數。
	Flat() float64
	// FlatArray 連續取 n 次 Flat，依序回傳。n <= 0 回傳空切片。
	FlatArray(n int) []float64
	// FillFlat 以連續的 Flat 填滿 dst。
	FillFlat(dst []float64)
	// SetSeed 以 seed 重設內部狀態。負數 seed 取絕對值並記錄警告。
	SetSeed(seed int64)
	// Seed 回傳最後一次初始化使用的 seed。
	Seed() int64
	// Name 回傳引擎名稱。
	Name() string
}

// 引擎名稱
const (
	EngineRanmar = "ranmar"
	EnginePCG64  = "pcg64"
)

// Factory 依名稱建立引擎。
//
// 合約：New(seed) 必須是決定性的，相同 seed 產生相同的初始狀態與輸出序列。
type Factory interface {
	New(seed int64) Engine
	Name() string
}

type ranmarFactory struct{}

func (ranmarFactory) New(seed int64) Engine { return NewJamesRandom(seed) }
func (ranmarFactory) Name() string          { return EngineRanmar }

type pcg64Factory struct{}

func (pcg64Factory) New(seed int64) Engine { return NewPCG64(seed) }
func (pcg64Factory) Name() string          { return EnginePCG64 }

// Default 回傳 RANMAR 引擎工廠。
func Default() Factory {
	return ranmarFactory{}
}

// FactoryByName 依名稱取得引擎工廠，空字串視為 ranmar。
func FactoryByName(name string) (Factory, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EngineRanmar, "jamesrandom":
		return ranmarFactory{}, nil
	case EnginePCG64, "pcg":
		return pcg64Factory{}, nil
	}
	return nil, errs.ErrUnknownEngine.With(name)
}

// EngineNames 回傳所有可用的引擎名稱。
func EngineNames() []string {
	return []string{EngineRanmar, EnginePCG64}
}

// NewDefault 以加密亂數產生 seed，建立新的 RANMAR 引擎。
// 輸出不可重現，需要重現時請自行指定 seed。
func NewDefault() Engine {
	return NewJamesRandom(RandomSeed())
}

// RandomSeed 由 crypto/rand 取得非負 seed。
func RandomSeed() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt32))
	if err != nil {
		return DefaultSeed
	}
	return n.Int64()
}

// normSeed 將負數 seed 轉為絕對值。
func normSeed(engine string, seed int64) int64 {
	if seed >= 0 {
		return seed
	}
	slog.Warn("negative seed, using its absolute value", "engine", engine, "seed", seed)
	if seed == math.MinInt64 {
		return math.MaxInt64
	}
	return -seed
}

// fill 以 Flat 填滿 dst，供各引擎共用。
func fill(e Engine, dst []float64) {
	for i := range dst {
		dst[i] = e.Flat()
	}
}
