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

package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zintix-labs/ranlab"
	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/spec"
)

// maxBody POST 請求大小上限（/v1/stat 需要容納一百萬個數值）。
const maxBody = 32 << 20

// RunRequest /v1/fill 與 /v1/sim 共用的請求。
//
// Preset 與 Dist 擇一；使用預設時，其餘非零欄位覆寫預設內容。
type RunRequest struct {
	Preset  string             `json:"preset,omitempty"`
	Dist    string             `json:"dist,omitempty"`
	N       int                `json:"n,omitempty"`
	Seed    *int64             `json:"seed,omitempty"`
	Engine  string             `json:"engine,omitempty"`
	Params  map[string]float64 `json:"params,omitempty"`
	MeanMax float64            `json:"mean_max,omitempty"`
	Hist    *spec.HistSetting  `json:"hist,omitempty"`
	Workers int                `json:"workers,omitempty"`
}

// decodeRunRequest GET 讀 query，POST 讀 JSON body（未知欄位報錯）。
func decodeRunRequest(w http.ResponseWriter, r *http.Request) (*RunRequest, error) {
	req := new(RunRequest)
	if r.Method == http.MethodPost {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(req); err != nil {
			var mb *http.MaxBytesError
			if errors.As(err, &mb) {
				return nil, err
			}
			e := errs.NewWarn("invalid json:" + err.Error())
			e.Cause = err
			return nil, e
		}
		return req, nil
	}

	q := r.URL.Query()
	req.Preset = q.Get("preset")
	req.Dist = q.Get("dist")
	req.Engine = q.Get("engine")
	var err error
	if req.N, err = queryInt(q, "n"); err != nil {
		return nil, err
	}
	if req.Workers, err = queryInt(q, "workers"); err != nil {
		return nil, err
	}
	if s := q.Get("seed"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errs.NewWarn("seed must be int64")
		}
		req.Seed = &v
	}
	if req.MeanMax, err = queryFloat(q, "mean_max"); err != nil {
		return nil, err
	}
	if s := q.Get("params"); s != "" {
		if req.Params, err = spec.ParseParams(s); err != nil {
			return nil, err
		}
	}
	if q.Has("bins") {
		h := &spec.HistSetting{}
		if h.Bins, err = queryInt(q, "bins"); err != nil {
			return nil, err
		}
		if h.Min, err = queryFloat(q, "min"); err != nil {
			return nil, err
		}
		if h.Max, err = queryFloat(q, "max"); err != nil {
			return nil, err
		}
		req.Hist = h
	}
	return req, nil
}

// Setting 轉成已初始化的取樣設定，並檢查樣本數上限。
func (req *RunRequest) Setting(lab *ranlab.Lab, maxDraws int) (*spec.RunSetting, error) {
	var rs *spec.RunSetting
	switch {
	case req.Preset != "" && req.Dist != "":
		return nil, errs.NewWarn("preset and dist are mutually exclusive")
	case req.Preset != "":
		p, err := lab.Setting(req.Preset)
		if err != nil {
			return nil, err
		}
		rs = p
		if rs.Params == nil {
			rs.Params = map[string]float64{}
		}
		// 參數名稱不分大小寫，覆寫前先移除同名鍵
		for k, v := range req.Params {
			for old := range rs.Params {
				if strings.EqualFold(old, k) {
					delete(rs.Params, old)
				}
			}
			rs.Params[k] = v
		}
	case strings.TrimSpace(req.Dist) != "":
		rs = &spec.RunSetting{Dist: req.Dist, Params: req.Params}
	default:
		return nil, errs.NewWarn("preset or dist is required")
	}
	if req.N != 0 {
		rs.N = req.N
	}
	if req.Seed != nil {
		s := *req.Seed
		rs.Seed = &s
	}
	if req.Engine != "" {
		rs.Engine = req.Engine
	}
	if req.MeanMax != 0 {
		rs.MeanMax = req.MeanMax
	}
	if req.Hist != nil {
		h := *req.Hist
		rs.Hist = &h
	}
	if err := rs.Init(); err != nil {
		return nil, err
	}
	if rs.N < 1 || rs.N > maxDraws {
		return nil, errs.ErrInvalidCount.Withf("n must be between 1 and %d", maxDraws)
	}
	return rs, nil
}

func queryInt(q url.Values, key string) (int, error) {
	s := q.Get(key)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.NewWarn(key + " must be integer")
	}
	return v, nil
}

func queryFloat(q url.Values, key string) (float64, error) {
	s := q.Get(key)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errs.NewWarn(key + " must be a number")
	}
	return v, nil
}
