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

package ranlab

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/sdk/core"
	"github.com/zintix-labs/ranlab/sdk/dist"
	"github.com/zintix-labs/ranlab/spec"
)

// EnginePool 管理「某一種引擎」的所有實例。
// 它透過兩個通道管理引擎生命週期：
//  1. pool：健康且可用的引擎，供 Fill() 借出 / 歸還。
//  2. broken：取樣過程中發生 panic 或 fatal error 的引擎，送往此通道等待檢查或丟棄。
//
// 引擎被送至 broken 時會立即補上一個新引擎以維持容量。
// 池內引擎的序列會延續使用，不保證可重現；需要重現請在設定中指定 seed。
type EnginePool struct {
	engine        string
	lab           *Lab
	cf            core.Factory
	initSeed      int64
	seedMaker     *seedMaker
	pool          chan core.Engine // 可用引擎的通道，用於取得和歸還
	broken        chan core.Engine // 壞掉引擎的通道
	done          chan struct{}    // 關閉訊號：關閉後不再允許借出/歸還/補充
	closeOnce     sync.Once        // 確保 Close() 只執行一次
	poolsize      int              // 目標容量
	rebuild       atomic.Int32     // 補充引擎次數
	inflight      atomic.Int32     // 使用中
	draws         atomic.Int64     // 累計取樣筆數
	panics        atomic.Int32     // panic 次數
	fatals        atomic.Int32     // fatal 次數（引擎狀態不可信）
	closeReason   atomic.Value     // string: 關閉原因
	closeInflight atomic.Int32     // 關閉當下 inflight（快照）
	closeAvail    atomic.Int32     // 關閉當下 pool 可用數量（快照）
	closeBroken   atomic.Int32     // 關閉當下 broken backlog（快照）
}

// newEnginePool 建立指定引擎的池，n 至少為 1。
// 每個引擎以 seedMaker 推出的 seed 初始化。
func newEnginePool(n int, lab *Lab, cf core.Factory, seed int64) (*EnginePool, error) {
	if cf == nil {
		return nil, errs.NewFatal("engine factory required")
	}
	n = max(1, n)
	p := &EnginePool{
		engine:    cf.Name(),
		lab:       lab,
		cf:        cf,
		initSeed:  seed,
		seedMaker: newSeedMaker(seed),
		pool:      make(chan core.Engine, n),
		broken:    make(chan core.Engine, 100),
		done:      make(chan struct{}),
		poolsize:  n,
	}
	p.closeReason.Store("")
	p.closeInflight.Store(-1)
	p.closeAvail.Store(-1)
	p.closeBroken.Store(-1)

	for i := 0; i < n; i++ {
		p.pool <- cf.New(p.seedMaker.next())
	}
	return p, nil
}

// Close 進入關閉狀態，之後所有 Fill() 直接回 error。
func (p *EnginePool) Close() {
	p.closeWithReason("closed")
}

// Closed 回報池是否已進入關閉狀態。
func (p *EnginePool) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// closeWithReason 進入關閉狀態並記錄原因（reason 只會被寫入一次）。
func (p *EnginePool) closeWithReason(reason string) {
	p.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		p.closeReason.Store(reason)
		p.closeInflight.Store(p.inflight.Load())
		p.closeAvail.Store(int32(len(p.pool)))
		p.closeBroken.Store(int32(len(p.broken)))
		close(p.done)
	})
}

// isFatalErr 判斷本次錯誤是否代表「引擎狀態不可信」。
// 參數錯誤這類 Warn 等級的錯誤不淘汰引擎。
func isFatalErr(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*errs.E); ok {
		if e.ErrLv == errs.Fatal {
			return true
		}
	}
	return false
}

// Fill 借出一個引擎，依設定產生 rs.N 筆樣本後歸還。設定中的 seed 不會被使用。
func (p *EnginePool) Fill(ctx context.Context, rs *spec.RunSetting) (out []float64, err error) {
	return p.Do(ctx, func(e core.Engine) ([]float64, error) {
		s, err := p.lab.NewSampler(rs, e)
		if err != nil {
			return nil, err
		}
		return dist.Fill(s, rs.N), nil
	})
}

// Do 借出一個引擎執行 fn。fn 不得保留引擎。
func (p *EnginePool) Do(ctx context.Context, fn func(core.Engine) ([]float64, error)) (out []float64, err error) {
	var e core.Engine
	select {
	case <-p.done:
		return nil, errs.NewFatal("engine pool closed: " + p.ClosedReason())
	case <-ctx.Done():
		return nil, errs.Wrap(ctx.Err(), "fill canceled/timeout")
	case e = <-p.pool:
		p.inflight.Add(1)
	}
	if e == nil {
		return nil, errs.NewFatal("engine pool got nil engine")
	}

	var isPanic bool
	defer func() {
		p.inflight.Add(-1)
		if r := recover(); r != nil {
			isPanic = true
			p.panics.Add(1)
			out = nil
			err = errs.NewFatal(fmt.Sprintf("engine %s panic : %v", p.engine, r))
		}
		if p.Closed() {
			return
		}
		if isPanic || isFatalErr(err) {
			if !isPanic {
				p.fatals.Add(1)
			}
			select {
			case p.broken <- e:
			default:
				// broken 滿了代表連續故障，進入關閉狀態讓上層接管
				p.closeWithReason("overwhelmed_by_failures")
				return
			}
			p.rebuild.Add(1)
			select {
			case <-p.done:
			case p.pool <- p.cf.New(p.seedMaker.next()):
			}
			return
		}
		// 一般錯誤不淘汰引擎，原樣歸還
		select {
		case <-p.done:
		case p.pool <- e:
		}
	}()

	out, err = fn(e)
	if err == nil {
		p.draws.Add(int64(len(out)))
	}
	return out, err
}

func (p *EnginePool) Engine() string {
	return p.engine
}

func (p *EnginePool) PoolSize() int {
	return p.poolsize
}

func (p *EnginePool) Inflight() int {
	return int(p.inflight.Load())
}

func (p *EnginePool) ReBuild() int {
	return int(p.rebuild.Load())
}

func (p *EnginePool) ClosedReason() string {
	if v := p.closeReason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Available 回傳當下可借出的引擎數，高併發下為近似值。
func (p *EnginePool) Available() int {
	return len(p.pool)
}

// EnginePoolMetrics 拉取式的觀測快照。
//
// Available / BrokenBacklog 來自 len(chan)，高併發下是近似值。
// Close* 欄位只在 Close 時寫入一次，尚未關閉時為 -1。
type EnginePoolMetrics struct {
	Engine string `json:"engine"`

	PoolSize      int    `json:"pool_size"`
	Available     int    `json:"available"`
	Inflight      int    `json:"inflight"`
	BrokenBacklog int    `json:"broken_backlog"`
	Draws         int64  `json:"draws"`
	Rebuild       int    `json:"rebuild"`
	Panics        int    `json:"panics"`
	Fatals        int    `json:"fatals"`
	Closed        bool   `json:"closed"`
	CloseReason   string `json:"close_reason"`

	CloseInflight int `json:"close_inflight"`
	CloseAvail    int `json:"close_avail"`
	CloseBroken   int `json:"close_broken"`
}

// Metrics 回傳觀測快照，上層自行決定輸出方式。
func (p *EnginePool) Metrics() EnginePoolMetrics {
	return EnginePoolMetrics{
		Engine:        p.engine,
		PoolSize:      p.poolsize,
		Available:     len(p.pool),
		Inflight:      int(p.inflight.Load()),
		BrokenBacklog: len(p.broken),
		Draws:         p.draws.Load(),
		Rebuild:       int(p.rebuild.Load()),
		Panics:        int(p.panics.Load()),
		Fatals:        int(p.fatals.Load()),
		Closed:        p.Closed(),
		CloseReason:   p.ClosedReason(),
		CloseInflight: int(p.closeInflight.Load()),
		CloseAvail:    int(p.closeAvail.Load()),
		CloseBroken:   int(p.closeBroken.Load()),
	}
}
