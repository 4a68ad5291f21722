package stats

import (
	"encoding/json"
	"io"
	"time"

	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// SampleReportRender 定義輸出行為
type SampleReportRender interface {
	Write(w io.Writer, r *SampleReport) error
}

// Json渲染
type JsonSampleReportRender struct{}

func (jr *JsonSampleReportRender) Write(w io.Writer, r *SampleReport) error {
	return json.NewEncoder(w).Encode(r)
}

// YAML渲染
type YAMLSampleReportRender struct{}

func (yr *YAMLSampleReportRender) Write(w io.Writer, r *SampleReport) error {
	// 不管欄位，只要是陣列（YAML Sequence），就維持外層預設展開；
	// 只有「最內層的一維陣列」或「本身就是一維陣列」時才輸出成 flow style：[..., ...]
	return forceReadableList(w, r)
}

// Table渲染：耗時、摘要表與直方圖
type TableSampleReportRender struct {
	Elapsed  time.Duration
	BarWidth int
}

func (tr *TableSampleReportRender) Write(w io.Writer, r *SampleReport) error {
	if tr.Elapsed > 0 {
		formatDuration(w, tr.Elapsed, int(r.Summary.Count))
	}
	sk, sm := r.fmtBasic()
	if _, err := io.WriteString(w, fmtTable(r.title(), sk, sm)); err != nil {
		return err
	}
	if r.Hist != nil && r.Hist.H1 != nil {
		return r.Hist.H1.Render(w, tr.BarWidth)
	}
	return nil
}

// WriteTable 批次評估的摘要表
func (b *BatchReport) WriteTable(w io.Writer, title string) error {
	p := message.NewPrinter(lang)
	m := map[string]string{
		"Batches":       p.Sprintf("%d", b.Batches),
		"Batch Size":    p.Sprintf("%d", b.BatchSize),
		"Mean of Means": p.Sprintf("%.6g", b.MeanOfMeans),
		"Std of Means":  p.Sprintf("%.6g", b.StdOfMeans),
		"P05":           p.Sprintf("%.6g [%.6g, %.6g]", b.P05.Hat, b.P05.CI.Lo, b.P05.CI.Hi),
		"Median":        p.Sprintf("%.6g [%.6g, %.6g]", b.Median.Hat, b.Median.CI.Lo, b.Median.CI.Hi),
		"P95":           p.Sprintf("%.6g [%.6g, %.6g]", b.P95.Hat, b.P95.CI.Lo, b.P95.CI.Hi),
	}
	keys := []string{"Batches", "Batch Size", "Mean of Means", "Std of Means", "P05", "Median", "P95"}
	if b.ExpectedStd != nil {
		m["Expected Std"] = p.Sprintf("%.6g", *b.ExpectedStd)
		keys = append(keys, "Expected Std")
	}
	if c := b.Coverage; c != nil {
		m["CI Coverage"] = p.Sprintf("%.4f [%.4f, %.4f]", c.Hat, c.CI.Lo, c.CI.Hi)
		keys = append(keys, "CI Coverage")
	}
	_, err := io.WriteString(w, fmtTable(title, keys, m))
	return err
}

// YAML 內層方法
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}

	// 自頂向下調整所有 sequence node 的 style：
	// - 若該 sequence 內部「沒有子 sequence」，代表它是最內層的一維（或本身就是一維）=> 用 flow style: [...]
	// - 若該 sequence 內部「有子 sequence」，代表它是外層維度 => 保持預設 block（展開）
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}

	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
		return

	case yaml.SequenceNode:
		hasChildSeq := false
		for _, c := range n.Content {
			if c != nil && (c.Kind == yaml.SequenceNode || c.Kind == yaml.MappingNode) {
				hasChildSeq = true
				break
			}
		}

		for _, c := range n.Content {
			styleReadableSequences(c)
		}

		// 純量陣列 => flow style: [a, b, c]
		if !hasChildSeq {
			n.Style = yaml.FlowStyle
		}
		return

	default:
		return
	}
}
