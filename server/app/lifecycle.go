// Package app 定義應用程式根目錄用以管理長期運行元件的最小生命週期抽象。
package app

import "context"

// Component 抽象任何「可啟動 / 可關閉」的長生命週期元件。
// - Run() 應該是阻塞呼叫，直到元件停止為止（正常或錯誤）。
// - Shutdown(ctx) 用於要求優雅關閉；實作方應該尊重 ctx deadline/cancel。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// Closer 把只有 Close 的資源（引擎池 runtime、非同步 logger）包成 Component：
// Run 阻塞到 Shutdown 被呼叫，Shutdown 執行 Close。
type Closer struct {
	close func()
	done  chan struct{}
}

func NewCloser(close func()) *Closer {
	return &Closer{close: close, done: make(chan struct{})}
}

func (c *Closer) Run() error {
	<-c.done
	return nil
}

func (c *Closer) Shutdown(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	default:
	}
	if c.close != nil {
		c.close()
	}
	close(c.done)
	return nil
}
