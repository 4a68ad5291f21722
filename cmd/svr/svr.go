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

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zintix-labs/ranlab/demo"
	"github.com/zintix-labs/ranlab/server"
	"github.com/zintix-labs/ranlab/server/logger"
	"github.com/zintix-labs/ranlab/server/svrcfg"
)

// This command is the "lab server" entrypoint for the ranlab repo.
// It serves the v1 api and the dev panel with the embedded presets.
func main() {
	cfg, err := loadConfigFromFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := server.Run(cfg); err != nil {
		os.Exit(1)
	}
}

type config struct {
	Addr     string
	LogMode  string
	PoolSize int
	Workers  int
	MaxDraws int
}

func loadConfigFromFlags() (*svrcfg.SvrCfg, error) {
	cfg := new(config)
	flag.StringVar(&cfg.Addr, "addr", ":5808", "listen address")
	flag.StringVar(&cfg.LogMode, "log-mode", "dev", "log mode: dev|prod|silence")
	flag.IntVar(&cfg.PoolSize, "pool", 4, "engines per pool")
	flag.IntVar(&cfg.Workers, "workers", 4, "max workers for /v1/sim")
	flag.IntVar(&cfg.MaxDraws, "max-draws", svrcfg.DefaultMaxDraws, "max draws per request")

	flag.Parse()

	mode, err := logger.ParseMode(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	sCfg, err := demo.NewServerConfig(mode)
	if err != nil {
		return nil, err
	}
	sCfg.Addr = cfg.Addr
	sCfg.PoolSize = cfg.PoolSize
	sCfg.Workers = cfg.Workers
	sCfg.MaxDraws = cfg.MaxDraws
	return sCfg, nil
}
