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

package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/ranlab/errs"
)

// enum LogMode
type LogMode uint8

const (
	ModeDev LogMode = iota
	ModeProd
	ModeSilence
)

var modeNames = map[LogMode]string{
	ModeDev:     "dev",
	ModeProd:    "prod",
	ModeSilence: "silence",
}

func (m LogMode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "unknown"
}

// ParseMode 解析 CLI 旗標，不分大小寫。
func ParseMode(s string) (LogMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dev":
		return ModeDev, nil
	case "prod", "production":
		return ModeProd, nil
	case "silence", "silent", "off":
		return ModeSilence, nil
	}
	return ModeDev, errs.NewWarn("unknown log mode: " + s)
}

// NewDefaultLogger 依 LogMode 預設值建立同步 logger。
func NewDefaultLogger(mode LogMode) *slog.Logger {
	return slog.New(buildHandler(os.Stderr, os.Stdout, mode))
}

// NewDefaultAsyncLogger 依 LogMode 預設值建立非同步 logger，服務端使用。
func NewDefaultAsyncLogger(mode LogMode) *slog.Logger {
	return slog.New(NewAsyncHandler(buildHandler(os.Stderr, os.Stdout, mode), 8192))
}

// NewWriterLogger 所有模式都寫到 w（CLI 報表走 stdout 時，log 改寫到 stderr）。
func NewWriterLogger(w io.Writer, mode LogMode) *slog.Logger {
	return slog.New(buildHandler(w, w, mode))
}

// NewLogger 包裝呼叫者自行組裝的 Handler，nil 時使用 ModeDev。
func NewLogger(h slog.Handler) *slog.Logger {
	if h == nil {
		h = buildHandler(os.Stderr, os.Stdout, ModeDev)
	}
	return slog.New(h)
}

// AsyncHandler 把任意 slog.Handler 變成非阻塞：
// Handle 只做 enqueue，背景 goroutine 逐筆寫出；channel 滿時直接丟棄並計數。
//
// slog.Logger 會忽略 Handle 回傳的 error，I/O 錯誤需在 next 內自行處理。
type AsyncHandler struct {
	next slog.Handler
	d    *asyncDispatcher
}

type asyncDispatcher struct {
	ch     chan asyncItem
	closed chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	dropCount atomic.Uint64
}

type asyncItem struct {
	ctx     context.Context
	rec     slog.Record
	handler slog.Handler
}

// NewAsyncHandler 以 buf 大小的佇列包裝 next，buf <= 0 時為 1024。
func NewAsyncHandler(next slog.Handler, buf int) *AsyncHandler {
	if next == nil {
		next = buildHandler(os.Stderr, os.Stdout, ModeDev)
	}
	if buf <= 0 {
		buf = 1024
	}
	d := &asyncDispatcher{
		ch:     make(chan asyncItem, buf),
		closed: make(chan struct{}),
	}
	d.wg.Add(1)
	go d.worker()
	return &AsyncHandler{next: next, d: d}
}

func (h *AsyncHandler) Ready() bool {
	return (h != nil && h.d != nil)
}

// Dropped 回傳因佇列已滿或已關閉而丟棄的筆數。
func (h *AsyncHandler) Dropped() uint64 {
	if h == nil || h.d == nil {
		return 0
	}
	return h.d.dropCount.Load()
}

// Close 停止接收並寫完佇列中剩下的紀錄，可重複呼叫。
func (h *AsyncHandler) Close() {
	if h == nil || h.d == nil {
		return
	}
	h.d.once.Do(func() { close(h.d.closed) })
	h.d.wg.Wait()
}

// Close 若 l 使用 AsyncHandler 則關閉並排空，其餘 logger 不做事。
func Close(l *slog.Logger) {
	if l == nil {
		return
	}
	if ah, ok := l.Handler().(*AsyncHandler); ok {
		ah.Close()
	}
}

func (d *asyncDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case it := <-d.ch:
			d.write(it)
		case <-d.closed:
			// drain
			for {
				select {
				case it := <-d.ch:
					d.write(it)
				default:
					return
				}
			}
		}
	}
}

func (d *asyncDispatcher) write(it asyncItem) {
	if it.handler != nil {
		_ = it.handler.Handle(it.ctx, it.rec)
	}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if h == nil || h.d == nil {
		return nil
	}
	select {
	case <-h.d.closed:
		h.d.dropCount.Add(1)
		return nil
	default:
	}
	// Record 跨 goroutine 前必須 Clone
	it := asyncItem{ctx: ctx, rec: r.Clone(), handler: h.next}
	select {
	case h.d.ch <- it:
	default:
		h.d.dropCount.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), d: h.d}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), d: h.d}
}

// NewAsync 回傳 logger 與底層 AsyncHandler，方便呼叫端在結束時 Close。
func NewAsync(buf int, mode LogMode) (*slog.Logger, *AsyncHandler) {
	ah := NewAsyncHandler(buildHandler(os.Stderr, os.Stdout, mode), buf)
	return slog.New(ah), ah
}

// buildHandler dev 為文字格式寫到 devW，prod 為 JSON 寫到 prodW。
func buildHandler(devW, prodW io.Writer, logmode LogMode) slog.Handler {
	switch logmode {
	case ModeDev:
		return slog.NewTextHandler(devW, &slog.HandlerOptions{Level: slog.LevelDebug})
	case ModeProd:
		return slog.NewJSONHandler(prodW, &slog.HandlerOptions{Level: slog.LevelInfo})
	case ModeSilence:
		return slog.NewTextHandler(io.Discard, nil)
	default:
		return slog.NewTextHandler(prodW, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}
