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

package hist

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const barRune = "█"

// Render 以文字長條圖輸出，width 為長條最大寬度（字元數）。
// 標籤欄以顯示寬度對齊，title 可含全形字。
func (h *H1) Render(w io.Writer, width int) error {
	if width < 1 {
		width = 40
	}
	labels := make([]string, len(h.Freq))
	labels[0] = fmt.Sprintf("(-inf, %.4g)", h.XMin)
	for i := 1; i <= h.NBins; i++ {
		labels[i] = fmt.Sprintf("[%.4g, %.4g)", h.Low(i), h.Low(i+1))
	}
	labels[h.NBins+1] = fmt.Sprintf("[%.4g, +inf)", h.XMax)

	labelW := 0
	maxF := 0.0
	for i, l := range labels {
		labelW = max(labelW, runewidth.StringWidth(l))
		maxF = max(maxF, h.Freq[i])
	}

	var sb strings.Builder
	title := h.Title
	if title == "" {
		title = h.Name
	}
	if title != "" {
		sb.WriteString(title)
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat("=", runewidth.StringWidth(title)))
		sb.WriteByte('\n')
	}
	for i, l := range labels {
		bar := 0
		if maxF > 0 {
			bar = int(h.Freq[i] / maxF * float64(width))
		}
		sb.WriteString(runewidth.FillRight(l, labelW))
		sb.WriteString(" | ")
		sb.WriteString(strings.Repeat(barRune, bar))
		sb.WriteString(fmt.Sprintf(" %g\n", h.Freq[i]))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
