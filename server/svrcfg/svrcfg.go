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

package svrcfg

import (
	"log/slog"

	"github.com/zintix-labs/ranlab"
	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/server/logger"
)

// DefaultMaxDraws 單一請求的樣本數上限。
const DefaultMaxDraws = 1_000_000

type SvrCfg struct {
	Log      *slog.Logger
	Addr     string // 空字串使用預設位址
	PoolSize int    // 每種引擎的池大小
	Workers  int    // /v1/sim 的平行數
	MaxDraws int    // 單一請求的樣本數上限
	Lab      *ranlab.Lab
}

func (sc *SvrCfg) Vaild() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}

	// 1 <= PoolSize <= 64, 1 <= Workers <= 16
	sc.PoolSize = min(64, max(1, sc.PoolSize))
	sc.Workers = min(16, max(1, sc.Workers))
	if sc.MaxDraws <= 0 || sc.MaxDraws > DefaultMaxDraws {
		sc.MaxDraws = DefaultMaxDraws
	}
	if sc.Lab == nil {
		return errs.NewFatal("ranlab is required")
	}
	if !sc.Lab.IsFrozen() {
		return errs.NewFatal("ranlab must be frozen before serving")
	}
	return nil
}
