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

package api

import (
	"log/slog"
	"net/http"

	"github.com/zintix-labs/ranlab/server/api/dev"
	v1 "github.com/zintix-labs/ranlab/server/api/v1"
	"github.com/zintix-labs/ranlab/server/httperr"
	"github.com/zintix-labs/ranlab/server/netsvr"
	"github.com/zintix-labs/ranlab/server/netsvr/middleware"
	"github.com/zintix-labs/ranlab/server/svrcfg"
)

// Route 主頁列出的路由。
type Route struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Desc   string `json:"desc"`
}

var routes = []Route{
	{"GET", "/v1/dists", "distributions, parameters and engines"},
	{"GET", "/v1/presets", "preset run settings"},
	{"GET|POST", "/v1/fill", "draw n samples"},
	{"GET|POST", "/v1/sim", "draw n samples and report statistics"},
	{"POST", "/v1/stat", "report statistics of given values"},
	{"GET", "/dev", "dev panel"},
}

// RegisterRoutes 註冊 middleware、主頁、Dev Panel 與 v1 api。
// 回傳的 Handler 持有引擎池，服務結束時需 Close 其 Runtime。
func RegisterRoutes(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) (*v1.Handler, error) {
	registerMiddleware(svr, sCfg.Log) // 1. 註冊 middleware
	registerIndex(svr)                // 2. 註冊主頁
	dev.Register(svr, sCfg)           // 3. 開發者工具頁
	return registerV1API(svr, sCfg)   // 4. 註冊 v1 api
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetSvr, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.RecoverLog(log))
	svr.Use(middleware.Compression)
}

// 註冊主頁
func registerIndex(svr netsvr.NetSvr) {
	svr.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httperr.JSON(w, struct {
			Name   string  `json:"name"`
			Routes []Route `json:"routes"`
		}{Name: "ranlab", Routes: routes})
	})
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) (*v1.Handler, error) {
	h, err := v1.NewHandler(sCfg)
	if err != nil {
		return nil, err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/dists", h.Dists)
		vOne.Get("/presets", h.Presets)
		vOne.Get("/fill", h.Fill)
		vOne.Get("/sim", h.Sim)

		vOne.Post("/fill", h.Fill)
		vOne.Post("/sim", h.Sim)
		vOne.Post("/stat", h.Stat)
	})
	return h, nil
}
