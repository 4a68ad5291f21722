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

// Package demo 以內建預設組出可直接使用的 Lab 與服務設定。
package demo

import (
	"github.com/zintix-labs/ranlab"
	"github.com/zintix-labs/ranlab/catalog"
	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/presets"
	"github.com/zintix-labs/ranlab/sdk/core"
	"github.com/zintix-labs/ranlab/server/logger"
	"github.com/zintix-labs/ranlab/server/svrcfg"
)

func New() (*catalog.Catalog, error) {
	return catalog.New(presets.FS)
}

// NewServerConfig 以 mode 建立非同步 logger，Lab 與服務共用同一個 logger。
func NewServerConfig(mode logger.LogMode) (*svrcfg.SvrCfg, error) {
	log := logger.NewDefaultAsyncLogger(mode)
	lab, err := ranlab.NewAuto(core.Default(), ranlab.Presets(presets.FS), ranlab.WithLogger(log))
	if err != nil {
		return nil, errs.NewFatal("new ranlab failed:" + err.Error())
	}
	scfg := &svrcfg.SvrCfg{
		Log:      log,
		PoolSize: 4,
		Workers:  4,
		MaxDraws: svrcfg.DefaultMaxDraws,
		Lab:      lab,
	}
	return scfg, nil
}

func NewLab() (*ranlab.Lab, error) {
	return ranlab.NewAuto(core.Default(), ranlab.Presets(presets.FS))
}
