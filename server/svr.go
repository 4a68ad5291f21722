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

package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/server/api"
	"github.com/zintix-labs/ranlab/server/app"
	"github.com/zintix-labs/ranlab/server/logger"
	"github.com/zintix-labs/ranlab/server/netsvr"
	"github.com/zintix-labs/ranlab/server/svrcfg"
)

// Run 是 server 套件的「組裝器（assembler）」與「啟動入口（runtime entry）」。
//
// 它負責：
//  1. 驗證輸入的 SvrCfg（包含必要依賴，例如 logger 與 Lab）。
//  2. 建立 HTTP server（netsvr），監聽 sCfg.Addr。
//  3. 註冊路由與 middleware（api.RegisterRoutes），同時建立引擎池。
//  4. 啟動 app.Run() 並回傳停止原因。
//
// 注意：
//   - Run 不綁定任何「檔案路徑」或「環境變數」策略；所有依賴都應透過 SvrCfg 明確注入。
//   - 若要自訂 server 的組裝/路由/生命週期，可以直接持有 Lab 自行組裝。
func Run(sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Vaild(); err != nil {
		// 防止外層傳入的logger不可用
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return serve(sCfg, netsvr.NewChiServer(sCfg.Addr))
}

// RunWithSvr 與 Run() 相同，差別在於允許呼叫端注入自訂的 NetSvr
// （自己包裝的 adapter、額外的 server option、或把生命週期接到既有框架）。
//
// 合約：
//   - 先做 SvrCfg 的基本驗證；失敗時額外把錯誤輸出到 stderr，避免「組裝失敗但無 log 可看」。
//   - svr 必須非 nil，且若是 ChiAdapter 會要求 Ready() 為 true。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if err := sCfg.Vaild(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		err := errs.NewFatal("svr is required")
		sCfg.Log.Error(err.Error())
		return err
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		err := errs.NewFatal("default server is not ready")
		sCfg.Log.Error(err.Error())
		return err
	}
	return serve(sCfg, svr)
}

// serve 註冊路由後交給 app 管理：HTTP server、引擎池與非同步 logger 一起啟停。
// logger 最後關閉，確保關機訊息都寫出。
func serve(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	h, err := api.RegisterRoutes(svr, sCfg)
	if err != nil {
		sCfg.Log.Error("register routes failed", slog.Any("err", err))
		return err
	}
	rt := h.Runtime()

	a := app.NewWith(svr, app.NewCloser(rt.Close)).WithLogger(sCfg.Log)
	if addr, ok := svr.(interface{ Address() string }); ok {
		sCfg.Log.Info("[ranlab] listening on http://localhost" + addr.Address())
	} else {
		sCfg.Log.Info("[ranlab] listening")
	}
	err = a.Run()
	if err != nil {
		sCfg.Log.Error("app stopped:", slog.Any("err", err))
	}
	sCfg.Log.Info("[ranlab] stopped", slog.String("reason", rt.ClosedReason()))
	logger.Close(sCfg.Log)
	return err
}
