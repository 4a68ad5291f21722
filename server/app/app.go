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

// Package app 提供應用程式生命週期管理（App），負責統一啟動與關閉多個 Component。
package app

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 5 * time.Second

// App 啟動所有註冊的 Component，收到 OS 信號、ctx 結束或任一 Component 返回時，依序關閉全部元件。
type App struct {
	comps []Component
	log   *slog.Logger
}

// New 建立一個新的 App 實例。
func New() *App { return &App{log: slog.Default()} }

// NewWith 建立時直接註冊多個 Component。
func NewWith(comps ...Component) *App {
	app := New()
	for _, c := range comps {
		app.Register(c)
	}
	return app
}

// WithLogger 設定關閉錯誤的輸出位置。
func (a *App) WithLogger(l *slog.Logger) *App {
	if l != nil {
		a.log = l
	}
	return a
}

// Register 將一個 Component 註冊到 App 中，依註冊順序關閉。
func (a *App) Register(c Component) {
	a.comps = append(a.comps, c)
}

// Run 阻塞直到收到 SIGINT/SIGTERM 或任一 Component 的 Run 返回。
// 收到信號時回傳 nil；Component 返回時回傳它的錯誤。
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext 與 Run 相同，但以 ctx 取代 OS 信號。
func (a *App) RunContext(ctx context.Context) error {
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}
	select {
	case <-ctx.Done():
		a.gracefulShutdown(shutdownTimeout)
		return nil
	case err := <-errCh:
		a.gracefulShutdown(shutdownTimeout)
		return err
	}
}

// gracefulShutdown 在 td 內依序呼叫所有 Component.Shutdown。
func (a *App) gracefulShutdown(td time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), td)
	defer cancel()
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil {
			a.log.Error("shutdown err", slog.Any("err", err))
		}
	}
}
