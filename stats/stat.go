package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var lang language.Tag = language.English

// 所有區間估計的信心水準
const confidence = 0.95

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// SampleReport 取樣統計報告
//
// Quantiles 與 Theory 需要保留原始樣本才會產生。
type SampleReport struct {
	Summary   *SummaryReport  `json:"Summary"`
	Quantiles *QuantileReport `json:"Quantiles,omitempty"`
	Theory    *TheoryReport   `json:"Theory,omitempty"`
	Hist      *HistReport     `json:"Hist,omitempty"`
	isDone    bool
}

type SummaryReport struct {
	Name       string             `json:"Name"`
	Dist       string             `json:"Dist"`
	Engine     string             `json:"Engine"`
	Seed       int64              `json:"Seed"`
	Params     map[string]float64 `json:"Params,omitempty"`
	Count      int64              `json:"Count"`
	Mean       float64            `json:"Mean"`
	Variance   float64            `json:"Variance"`
	Std        float64            `json:"Std"`
	StdErr     float64            `json:"StdErr"`
	MeanCI     CI                 `json:"MeanCI"`
	Skewness   float64            `json:"Skewness"`
	ExKurtosis float64            `json:"ExKurtosis"`
	Min        float64            `json:"Min"`
	Max        float64            `json:"Max"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Summarize 以 gonum/stat 計算一組樣本的摘要（不含名稱等描述欄位）。
func Summarize(xs []float64) *SummaryReport {
	n := len(xs)
	s := &SummaryReport{Count: int64(n)}
	if n == 0 {
		return s
	}
	s.Min = floats.Min(xs)
	s.Max = floats.Max(xs)
	if n == 1 {
		s.Mean = xs[0]
		return s
	}
	s.Mean, s.Variance = stat.MeanVariance(xs, nil)
	if s.Variance > 0 {
		if n > 2 {
			s.Skewness = stat.Skew(xs, nil)
		}
		if n > 3 {
			s.ExKurtosis = stat.ExKurtosis(xs, nil)
		}
	}
	return s
}

// SummaryFromMoments 由串流累積的中心矩建立摘要。
//
// m2, m3, m4 為離均差的二、三、四次方和，修正項與 gonum/stat 的 Skew/ExKurtosis 相同，
// 因此與 Summarize 對同一組資料的結果一致（僅差在浮點誤差）。
func SummaryFromMoments(n int64, mean, m2, m3, m4, min, max float64) *SummaryReport {
	s := &SummaryReport{Count: n}
	if n == 0 {
		return s
	}
	s.Mean, s.Min, s.Max = mean, min, max
	if n == 1 {
		return s
	}
	fn := float64(n)
	s.Variance = m2 / (fn - 1)
	std := math.Sqrt(s.Variance)
	if std > 0 {
		if n > 2 {
			s.Skewness = m3 / (std * std * std) * (fn / (fn - 1)) / (fn - 2)
		}
		if n > 3 {
			mul := ((fn + 1) / (fn - 1)) * (fn / (fn - 2)) / (fn - 3)
			offset := 3 * ((fn - 1) / (fn - 2)) * ((fn - 1) / (fn - 3))
			s.ExKurtosis = m4/(s.Variance*s.Variance)*mul - offset
		}
	}
	return s
}

// NewSampleReport 由完整樣本建立報告：摘要、分位數與（可取得時）理論比較。
// xs 不會被修改。
func NewSampleReport(distName string, params map[string]float64, xs []float64) *SampleReport {
	r := &SampleReport{Summary: Summarize(xs)}
	r.Summary.Dist = distName
	r.Summary.Params = params
	if len(xs) == 0 {
		return r
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	r.Quantiles = Quantiles(sorted, r.Summary.Mean)
	r.Theory = CompareTheory(distName, params, sorted)
	return r
}

// Done 計算衍生欄位並鎖定 isDone 標記。
//
// 取樣過程只累積矩，標準差、信賴區間等一次在這裡算完。
// 同時把 NaN / Inf 轉成可序列化的有限值。
func (r *SampleReport) Done() {
	if r.isDone {
		return
	}
	s := r.Summary
	if s == nil {
		s = &SummaryReport{}
		r.Summary = s
	}
	s.Std = math.Sqrt(s.Variance)
	s.StdErr = 0
	s.MeanCI = CI{Lo: s.Mean, Hi: s.Mean}
	if s.Count > 1 {
		s.StdErr = s.Std / math.Sqrt(float64(s.Count))
		t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(s.Count - 1)}.Quantile(1 - (1-confidence)/2)
		s.MeanCI = CI{Lo: s.Mean - t*s.StdErr, Hi: s.Mean + t*s.StdErr}
	}
	for _, p := range []*float64{&s.Mean, &s.Variance, &s.Std, &s.StdErr, &s.MeanCI.Lo, &s.MeanCI.Hi,
		&s.Skewness, &s.ExKurtosis, &s.Min, &s.Max} {
		*p = finite(*p)
	}
	r.isDone = true
}

func (r *SampleReport) WriteWith(w io.Writer, rep SampleReportRender) error {
	r.Done()
	return rep.Write(w, r)
}

// StdOut 將耗時與摘要表印到標準輸出。
func (r *SampleReport) StdOut(ut time.Duration) {
	r.Done()
	formatDuration(os.Stdout, ut, int(r.Summary.Count))
	sk, sm := r.fmtBasic()
	fmt.Println(fmtTable(r.title(), sk, sm))
}

// ============================================================
// ** 內部方法 **
// ============================================================

func (r *SampleReport) title() string {
	if r.Summary.Name != "" {
		return r.Summary.Name
	}
	return r.Summary.Dist
}

func finite(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return 0
	case math.IsInf(x, 1):
		return math.MaxFloat64
	case math.IsInf(x, -1):
		return -math.MaxFloat64
	}
	return x
}

func formatDuration(w io.Writer, d time.Duration, draws int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	dps := int(float64(draws) / sec)
	if sec < 60.0 {
		p.Fprintf(w, "used: %.2f seconds\ndps : %d draws/sec\n", sec, dps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		p.Fprintf(w, "used: %dm %ds\ndps : %d draws/sec\n", m, s, dps)
		return
	}
	p.Fprintf(w, "used: %dh:%dm:%ds\ndps : %d draws/sec\n", h, m, s, dps)
}

func (r *SampleReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	s := r.Summary
	basic := map[string]string{
		"Distribution": s.Dist,
		"Engine":       s.Engine,
		"Seed":         fmt.Sprintf("%d", s.Seed),
		"Params":       fmtParams(s.Params),
		"Draws":        p.Sprintf("%d", s.Count),
		"Mean":         p.Sprintf("%.6g", s.Mean),
		"Mean 95% CI":  p.Sprintf("[%.6g, %.6g]", s.MeanCI.Lo, s.MeanCI.Hi),
		"Variance":     p.Sprintf("%.6g", s.Variance),
		"STD":          p.Sprintf("%.6g", s.Std),
		"Skewness":     p.Sprintf("%.4f", s.Skewness),
		"Ex. Kurtosis": p.Sprintf("%.4f", s.ExKurtosis),
		"Min":          p.Sprintf("%.6g", s.Min),
		"Max":          p.Sprintf("%.6g", s.Max),
	}
	keys := []string{"Distribution", "Engine", "Seed", "Params", "Draws", "Mean", "Mean 95% CI", "Variance", "STD", "Skewness", "Ex. Kurtosis", "Min", "Max"}
	if q := r.Quantiles; q != nil {
		basic["Median"] = p.Sprintf("%.6g [%.6g, %.6g]", q.Median.Hat, q.Median.CI.Lo, q.Median.CI.Hi)
		keys = append(keys, "Median")
	}
	if t := r.Theory; t != nil {
		if t.Mean != nil {
			basic["Theory Mean"] = p.Sprintf("%.6g", *t.Mean)
			keys = append(keys, "Theory Mean")
		}
		if t.Variance != nil {
			basic["Theory Var"] = p.Sprintf("%.6g", *t.Variance)
			keys = append(keys, "Theory Var")
		}
		basic["KS D / p"] = p.Sprintf("%.5f / %.4f", t.KSD, t.KSPValue)
		keys = append(keys, "KS D / p")
	}
	return keys, basic
}

func fmtParams(ps map[string]float64) string {
	if len(ps) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(ps))
	for k := range ps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, ps[k])
	}
	return strings.Join(parts, ",")
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	fmtStr := top
	fmtStr += p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right))
	fmtStr += divider
	for _, k := range keys {
		fmtStr += p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k])))
	}
	fmtStr += divider

	return fmtStr
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
