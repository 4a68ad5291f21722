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

	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/hist"
	"github.com/zintix-labs/ranlab/sdk/dist"
	"github.com/zintix-labs/ranlab/server/httperr"
	"github.com/zintix-labs/ranlab/spec"
	"github.com/zintix-labs/ranlab/stats"
)

// StatRequest POST /v1/stat：統計呼叫端提供的數值。
// Dist 有值時另外與理論分佈比較。
type StatRequest struct {
	Name   string             `json:"name,omitempty"`
	Dist   string             `json:"dist,omitempty"`
	Params map[string]float64 `json:"params,omitempty"`
	Values []float64          `json:"values"`
	Hist   *spec.HistSetting  `json:"hist,omitempty"`
}

func (h *Handler) Stat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperr.MethodNotAllowed(w)
		return
	}
	req := new(StatRequest)
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		var mb *http.MaxBytesError
		if errors.As(err, &mb) {
			httperr.Errs(w, err)
			return
		}
		httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
		return
	}
	rep, err := statReport(req, h.maxDraws)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	httperr.JSON(w, rep)
}

func statReport(req *StatRequest, maxDraws int) (*stats.SampleReport, error) {
	if len(req.Values) < 1 || len(req.Values) > maxDraws {
		return nil, errs.ErrInvalidCount.Withf("values must hold between 1 and %d numbers", maxDraws)
	}
	name, params := req.Dist, req.Params
	if req.Dist != "" {
		if err := dist.Validate(req.Dist, req.Params); err != nil {
			return nil, err
		}
		canon, resolved, err := dist.Resolve(req.Dist, req.Params)
		if err != nil {
			return nil, err
		}
		name, params = canon, resolved
	}
	rep := stats.NewSampleReport(name, params, req.Values)
	rep.Summary.Name = req.Name
	if hs := req.Hist; hs != nil {
		h1, err := hist.New(req.Name, name, hs.Bins, hs.Min, hs.Max)
		if err != nil {
			return nil, err
		}
		h1.FillN(req.Values)
		rep.Hist = stats.NewHistReport(h1)
	}
	rep.Done()
	return rep, nil
}
