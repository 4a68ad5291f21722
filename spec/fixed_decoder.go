package spec

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/zintix-labs/ranlab/errs"
	"gopkg.in/yaml.v3"
)

// decodeStrictYAML 只接受單一 YAML 文件，多寫/拼錯欄位就報錯。
func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errs.NewWarn("spec.fixed_decoder : empty document")
		}
		return badInput(err, "spec.fixed_decoder : decode failed")
	}
	return nil
}

// badInput 解碼錯誤屬於輸入問題，以 Warn 等級包裝。
func badInput(cause error, msg string) error {
	e := errs.NewWarn(msg)
	e.Cause = cause
	return e
}

// ParseParams 解析 "k=v,k2=v2" 形式的參數列（CLI 與 HTTP query 使用）。
// 轉成 YAML flow mapping 後嚴格解碼，非數值的值會報錯。空字串回傳空表。
func ParseParams(s string) (map[string]float64, error) {
	out := map[string]float64{}
	s = strings.TrimSpace(s)
	if s == "" {
		return out, nil
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		k, v, ok := strings.Cut(p, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, errs.ErrInvalidParam.Withf("malformed param %q", p)
		}
		items = append(items, k+": "+v)
	}
	doc := "{" + strings.Join(items, ", ") + "}"
	if err := yaml.Unmarshal([]byte(doc), &out); err != nil {
		return nil, errs.ErrInvalidParam.With(err.Error())
	}
	return out, nil
}
