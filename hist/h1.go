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

// Package hist 提供一維等寬直方圖。
//
// 分箱規則：
//   - 索引 0 為 underflow（x < xmin）。
//   - 索引 1..nbins 為 [xmin + (i-1)w, xmin + i*w)。
//   - 索引 nbins+1 為 overflow（x >= xmax）。
//   - NaN 不進任何分箱，另外計數。
package hist

import (
	"math"

	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/sdk/dist"
)

// H1 一維直方圖。只保存分箱計數，不保存原始資料。
type H1 struct {
	Name  string    `json:"name"  yaml:"name"`
	Title string    `json:"title" yaml:"title"`
	NBins int       `json:"nbins" yaml:"nbins"`
	XMin  float64   `json:"xmin"  yaml:"xmin"`
	XMax  float64   `json:"xmax"  yaml:"xmax"`
	Freq  []float64 `json:"freq"  yaml:"freq"` // 長度 nbins+2，含 underflow 與 overflow
	NaN   int64     `json:"nan"   yaml:"nan"`

	width   float64
	entries int64
}

// MaxBins 單一直方圖的分箱上限。
const MaxBins = 100000

// New 建立直方圖。1 <= nbins <= MaxBins 且 xmin < xmax，否則回傳 Warn 錯誤。
func New(name, title string, nbins int, xmin, xmax float64) (*H1, error) {
	if nbins < 1 || nbins > MaxBins {
		return nil, errs.Warnf("hist %s: nbins must be in [1,%d], got %d", name, MaxBins, nbins)
	}
	if !(xmin < xmax) || math.IsInf(xmax-xmin, 0) {
		return nil, errs.Warnf("hist %s: invalid range [%v,%v)", name, xmin, xmax)
	}
	return &H1{
		Name:  name,
		Title: title,
		NBins: nbins,
		XMin:  xmin,
		XMax:  xmax,
		Freq:  make([]float64, nbins+2),
		width: (xmax - xmin) / float64(nbins),
	}, nil
}

// Index 回傳 x 所屬的分箱索引；NaN 回傳 -1。
func (h *H1) Index(x float64) int {
	switch {
	case math.IsNaN(x):
		return -1
	case x < h.XMin:
		return 0
	case x >= h.XMax:
		return h.NBins + 1
	}
	i := int((x-h.XMin)/h.width) + 1
	// 靠近 xmax 的捨入誤差
	if i > h.NBins {
		i = h.NBins
	}
	return i
}

// Fill 加入一個值。
func (h *H1) Fill(x float64) {
	h.FillW(x, 1)
}

// FillW 以權重 w 加入一個值。
func (h *H1) FillW(x, w float64) {
	i := h.Index(x)
	if i < 0 {
		h.NaN++
		return
	}
	h.Freq[i] += w
	h.entries++
}

// FillN 依序加入多個值。
func (h *H1) FillN(xs []float64) {
	for _, x := range xs {
		h.Fill(x)
	}
}

// FillRandom 以批次填充產生 n 個值後填入。
func (h *H1) FillRandom(s dist.Sampler, n int) {
	h.FillN(dist.Fill(s, n))
}

// Prepare 回傳分箱頻率的副本（含 underflow 與 overflow）。
func (h *H1) Prepare() []float64 {
	out := make([]float64, len(h.Freq))
	copy(out, h.Freq)
	return out
}

// Entries 回傳已填入（非 NaN）的數量。
func (h *H1) Entries() int64 { return h.entries }

// Underflow 回傳 x < xmin 的總權重。
func (h *H1) Underflow() float64 { return h.Freq[0] }

// Overflow 回傳 x >= xmax 的總權重。
func (h *H1) Overflow() float64 { return h.Freq[h.NBins+1] }

// BinWidth 回傳分箱寬度。
func (h *H1) BinWidth() float64 { return h.width }

// Low 回傳第 i 個分箱 (1..nbins) 的下緣。
func (h *H1) Low(i int) float64 { return h.XMin + float64(i-1)*h.width }

// Centers 回傳 1..nbins 各分箱中心。
func (h *H1) Centers() []float64 {
	out := make([]float64, h.NBins)
	for i := range out {
		out[i] = h.XMin + (float64(i)+0.5)*h.width
	}
	return out
}

// InRange 回傳落在 [xmin, xmax) 的總權重。
func (h *H1) InRange() float64 {
	sum := 0.0
	for _, f := range h.Freq[1 : h.NBins+1] {
		sum += f
	}
	return sum
}

// Merge 合併分箱設定相同的直方圖。
func (h *H1) Merge(o *H1) error {
	if o == nil {
		return nil
	}
	if o.NBins != h.NBins || o.XMin != h.XMin || o.XMax != h.XMax {
		return errs.NewFatal("hist: merge with different binning")
	}
	for i := range h.Freq {
		h.Freq[i] += o.Freq[i]
	}
	h.entries += o.entries
	h.NaN += o.NaN
	return nil
}

// Clone 深拷貝。
func (h *H1) Clone() *H1 {
	c := *h
	c.Freq = h.Prepare()
	return &c
}

// Reset 清空所有計數。
func (h *H1) Reset() {
	for i := range h.Freq {
		h.Freq[i] = 0
	}
	h.entries = 0
	h.NaN = 0
}
