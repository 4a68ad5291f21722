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
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/recorder"
	"github.com/zintix-labs/ranlab/sdk/core"
	"github.com/zintix-labs/ranlab/sdk/dist"
	"github.com/zintix-labs/ranlab/spec"
	"github.com/zintix-labs/ranlab/stats"
)

const capPrepare int = 100

// chunk 每次批次填值的筆數，進度條以此為單位推進。
const chunk int = 4096

// worker 一組引擎與綁定的取樣器，只能由單一 goroutine 使用。
type worker struct {
	e core.Engine
	s dist.Sampler
}

// Simulator 用於大量取樣，可建立多組引擎並平行紀錄統計。
type Simulator struct {
	Name      string                     // 設定名稱
	Dist      string                     // 分佈正式名稱
	rs        *spec.RunSetting           // 方便重用建立 SampleRecorder
	lab       *Lab                       // 建立取樣器
	cf        core.Factory               // 引擎工廠
	initSeed  int64                      // 初始下的種子
	seedmaker *seedMaker                 // 種子生成器
	wBuf      []*worker                  // 併發執行的引擎
	rBuf      []*recorder.SampleRecorder // 併發紀錄員
}

func newSimulator(lab *Lab, rs *spec.RunSetting, cf core.Factory, seed int64) (*Simulator, error) {
	s := &Simulator{
		Name:      rs.Name,
		Dist:      rs.Dist,
		rs:        rs,
		lab:       lab,
		cf:        cf,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		wBuf:      make([]*worker, 0, capPrepare),
		rBuf:      make([]*recorder.SampleRecorder, 0, capPrepare),
	}
	// 第一組引擎直接使用初始 seed，單線結果與直接填值相同
	w, err := s.newWorker(seed)
	if err != nil {
		return nil, err
	}
	s.wBuf = append(s.wBuf, w)
	return s, nil
}

// Seed 回傳初始 seed。
func (s *Simulator) Seed() int64 { return s.initSeed }

// Setting 回傳模擬使用的設定副本。
func (s *Simulator) Setting() *spec.RunSetting { return s.rs.Clone() }

// Sim 單線模擬器：以一組引擎連續取 n 筆並回傳統計結果與用時。
// 會保存樣本，報表包含分位數與理論比較。
func (s *Simulator) Sim(n int, showpb bool) (*stats.SampleReport, time.Duration, error) {
	defer s.reset()
	if n < 1 {
		return nil, 0, errs.ErrInvalidCount.Withf("n=%d", n)
	}
	r, err := recorder.NewSampleRecorder(s.rs.WithN(n), s.initSeed, true)
	if err != nil {
		return nil, 0, err
	}
	s.rBuf = append(s.rBuf, r)

	bar := pb.StartNew(n)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	run(s.wBuf[0], r, n, bar)
	used := time.Since(bar.StartTime())
	bar.Finish()
	return r.Done(), used, nil
}

// SimMP 平行執行 mp 組引擎，每組取 n 筆（總計 n*mp），合併統計後回傳結果與用時。
// 只保留串流矩與直方圖，不保存樣本。
func (s *Simulator) SimMP(n int, mp int, showpb bool) (*stats.SampleReport, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if n < 1 {
		return nil, 0, errs.ErrInvalidCount.Withf("n=%d", n)
	}
	if err := s.prepareWorkers(mp); err != nil {
		return nil, 0, err
	}
	for len(s.rBuf) < mp {
		r, err := recorder.NewSampleRecorder(s.rs, s.initSeed, false)
		if err != nil {
			return nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(n * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			run(s.wBuf[i], s.rBuf[i], n, bar)
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	st, err := recorder.MergeSampleRecorder(s.rBuf)
	if err != nil {
		return nil, 0, err
	}
	return st.Done(), used, nil
}

// SimBatches 將 batches 個獨立批次（每批 n 筆）交給 mp 組引擎處理，
// 回傳全部樣本的合併報表與批次評估。
func (s *Simulator) SimBatches(mp int, batches int, n int, showpb bool) (*stats.SampleReport, *stats.BatchReport, time.Duration, error) {
	defer s.reset()
	if mp < 1 || batches < 1 || n < 1 {
		return nil, nil, 0, errs.NewWarn("invalid param")
	}
	if err := s.prepareWorkers(mp); err != nil {
		return nil, nil, 0, err
	}
	rs := s.rs.WithN(n)
	for len(s.rBuf) < batches {
		r, err := recorder.NewSampleRecorder(rs, s.initSeed, false)
		if err != nil {
			return nil, nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}
	// 緩衝 channel 讓批次依序被取走
	jobs := make(chan *recorder.SampleRecorder, 2048)

	wg := new(sync.WaitGroup)
	wg.Add(mp)

	bar := pb.StartNew(batches)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for w := 0; w < mp; w++ {
		go sim(wg, s.wBuf[w], jobs, n, bar)
	}
	for _, j := range s.rBuf {
		jobs <- j
	}
	close(jobs) // 批次送完，通知所有 worker 不會再有新工作
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	record, err := recorder.MergeSampleRecorder(s.rBuf)
	if err != nil {
		return nil, nil, 0, err
	}
	st := record.Done()

	reps := make([]*stats.SampleReport, len(s.rBuf))
	for i, r := range s.rBuf {
		reps[i] = r.Done()
	}
	est := stats.EstimateBatches(reps)
	return st, est, used, nil
}

// Samples 以第一組引擎取 n 筆原始樣本，不產生報表。
func (s *Simulator) Samples(n int) ([]float64, error) {
	if n < 1 {
		return nil, errs.ErrInvalidCount.Withf("n=%d", n)
	}
	return dist.Fill(s.wBuf[0].s, n), nil
}

func sim(wg *sync.WaitGroup, w *worker, jobs chan *recorder.SampleRecorder, n int, bar *pb.ProgressBar) {
	defer wg.Done()
	buf := make([]float64, min(n, chunk))
	for j := range jobs {
		for left := n; left > 0; {
			k := min(left, len(buf))
			dist.FillInto(w.s, buf[:k])
			j.RecordN(buf[:k])
			left -= k
		}
		bar.Increment()
	}
}

// run 以 chunk 為單位填值並紀錄。
func run(w *worker, r *recorder.SampleRecorder, n int, bar *pb.ProgressBar) {
	buf := make([]float64, min(n, chunk))
	for left := n; left > 0; {
		k := min(left, len(buf))
		dist.FillInto(w.s, buf[:k])
		r.RecordN(buf[:k])
		bar.Add(k)
		left -= k
	}
}

func (s *Simulator) newWorker(seed int64) (*worker, error) {
	e := s.cf.New(seed)
	smp, err := s.lab.NewSampler(s.rs, e)
	if err != nil {
		return nil, err
	}
	return &worker{e: e, s: smp}, nil
}

func (s *Simulator) prepareWorkers(mp int) error {
	for len(s.wBuf) < mp {
		w, err := s.newWorker(s.seedmaker.next())
		if err != nil {
			return err
		}
		s.wBuf = append(s.wBuf, w)
	}
	return nil
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// state 走全週期（不重複），再用可逆 mix63 打散
//
// 注意：此方法可能在併發環境下被多 goroutines 同時呼叫。
// 使用 CAS 迴圈確保每次呼叫都會取得唯一的下一個 state。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
