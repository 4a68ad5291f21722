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

// Package perf 包住 runtime/pprof，讓 cmd 以一個 flag 切換 profiling。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/ranlab/errs"
)

// Dir pprof 檔案寫入路徑
var Dir = "build/profiling"

const (
	ModeOff    = ""
	ModeCPU    = "cpu"
	ModeHeap   = "heap"
	ModeAllocs = "allocs"
	ModeBlock  = "block"
	ModeMutex  = "mutex"
)

// RunPProf 依 mode 決定執行哪種 profiling，未知的 mode 不執行 exe 直接回傳 Warn。
//
// Usage like:
//
//	go run ./cmd/run -dist gauss -n 10000000 -p cpu
func RunPProf(exe func(), mode string) error {
	switch mode {
	case ModeOff:
		exe()
		return nil
	case ModeCPU:
		return PProfCPU(exe)
	case ModeHeap:
		return PProfHeap(exe)
	case ModeAllocs, ModeBlock, ModeMutex:
		return pprofLookup(exe, mode)
	default:
		return errs.Warnf("unknown pprof mode %q", mode)
	}
}

// PProfCPU 對 exe 做 CPU profiling，也可以拿來做構建時給 pgo 的 blueprint。
// 輸出檔：Dir/cpu.pprof
func PProfCPU(exe func()) error {
	f, err := create(ModeCPU)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "failed to start pprof")
	}
	defer pprof.StopCPUProfile()

	exe()
	return nil
}

// PProfHeap 會在 exe() 執行完後，寫出一次 Heap Snapshot（in-use memory）。
// 寫出前呼叫一次 runtime.GC()，以獲得較準確的 Live Objects 視圖。
// 輸出檔：Dir/heap.pprof
func PProfHeap(exe func()) error {
	exe()

	runtime.GC()
	f, err := create(ModeHeap)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return errs.Wrap(err, "failed to write heap profile")
	}
	return nil
}

// pprofLookup 寫出 allocs / block / mutex profile。
// block 與 mutex 需要先打開取樣率，結束後還原。
func pprofLookup(exe func(), mode string) error {
	switch mode {
	case ModeBlock:
		runtime.SetBlockProfileRate(1)
		defer runtime.SetBlockProfileRate(0)
	case ModeMutex:
		prev := runtime.SetMutexProfileFraction(1)
		defer runtime.SetMutexProfileFraction(prev)
	}
	exe()

	f, err := create(mode)
	if err != nil {
		return err
	}
	defer f.Close()
	if prof := pprof.Lookup(mode); prof != nil {
		if err := prof.WriteTo(f, 0); err != nil {
			return errs.Wrap(err, "failed to write "+mode+" profile")
		}
	}
	return nil
}

func create(mode string) (*os.File, error) {
	if err := os.MkdirAll(Dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "failed to create pprof dir")
	}
	f, err := os.Create(filepath.Join(Dir, mode+".pprof"))
	if err != nil {
		return nil, errs.Wrap(err, "failed to create "+mode+".pprof")
	}
	return f, nil
}
