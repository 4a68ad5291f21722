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
	"sort"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/sdk/core"
	"github.com/zintix-labs/ranlab/spec"
)

// Runtime 服務端的執行期：每種引擎一個 EnginePool。
type Runtime struct {
	lab *Lab

	pools map[string]*EnginePool
	names []string // 固定順序，用於觀測/列舉

	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string

	poolSize int
}

func newRuntime(lab *Lab, poolSize int) (*Runtime, error) {
	rt := &Runtime{
		lab:      lab,
		pools:    map[string]*EnginePool{},
		done:     make(chan struct{}),
		poolSize: max(1, poolSize),
	}
	rt.reason.Store("")
	for _, name := range core.EngineNames() {
		cf, err := core.FactoryByName(name)
		if err != nil {
			return nil, err
		}
		p, err := newEnginePool(rt.poolSize, lab, cf, core.RandomSeed())
		if err != nil {
			return nil, err
		}
		rt.pools[name] = p
		rt.names = append(rt.names, name)
	}
	sort.Strings(rt.names)
	lab.Logger().Info("runtime ready", "engines", rt.names, "pool_size", rt.poolSize)
	return rt, nil
}

// Fill 依設定產生樣本。設定有 seed 時以新引擎產生（可重現），
// 否則從對應引擎池借出引擎。回傳實際使用的 seed，池內引擎回傳 nil。
func (rt *Runtime) Fill(ctx context.Context, rs *spec.RunSetting) ([]float64, *int64, error) {
	select {
	case <-ctx.Done():
		return nil, nil, errs.Wrap(ctx.Err(), "fill canceled/timeout")
	case <-rt.done:
		rt.closed.Store(true)
		return nil, nil, errs.NewFatal("runtime closed: " + rt.ClosedReason())
	default:
	}
	if rs == nil {
		return nil, nil, errs.NewFatal("nil run setting")
	}
	if rs.Seed != nil {
		xs, seed, err := rt.lab.Fill(rs)
		if err != nil {
			return nil, nil, err
		}
		return xs, &seed, nil
	}
	p, err := rt.Pool(rs.Engine)
	if err != nil {
		return nil, nil, err
	}
	xs, err := p.Fill(ctx, rs)
	return xs, nil, err
}

// Pool 依引擎名稱取得池，空字串為 Lab 預設引擎。
func (rt *Runtime) Pool(engine string) (*EnginePool, error) {
	cf, err := rt.lab.Factory(engine)
	if err != nil {
		return nil, err
	}
	p, ok := rt.pools[cf.Name()]
	if !ok {
		return nil, errs.ErrUnknownEngine.With(engine)
	}
	return p, nil
}

// Metrics 依引擎名稱排序回傳各池的快照。
func (rt *Runtime) Metrics() []EnginePoolMetrics {
	out := make([]EnginePoolMetrics, 0, len(rt.names))
	for _, n := range rt.names {
		out = append(out, rt.pools[n].Metrics())
	}
	return out
}

func (rt *Runtime) Lab() *Lab {
	return rt.lab
}

// Close 關閉 runtime 與所有引擎池，可重複呼叫。
func (rt *Runtime) Close() {
	rt.closeWithReason("closed")
}

func (rt *Runtime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		for _, p := range rt.pools {
			p.closeWithReason(reason)
		}
		close(rt.done)
	})
}

func (rt *Runtime) Closed() bool {
	return rt.closed.Load()
}

func (rt *Runtime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
