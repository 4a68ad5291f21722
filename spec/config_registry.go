package spec

import (
	"bytes"
	"encoding/json"

	"github.com/zintix-labs/ranlab/errs"
)

// GetRunSettingByYAML
// 會嚴格解碼 YAML 設定（未知欄位報錯）、補預設值並執行基本檢查後回傳。
func GetRunSettingByYAML(data []byte) (*RunSetting, error) {
	rs := &RunSetting{}
	if err := decodeStrictYAML(data, rs); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}

	// 設定檔初始化
	if err := rs.init(); err != nil {
		return nil, errs.Wrap(err, "run setting initialized err")
	}

	return rs, nil
}

// GetRunSettingByJSON
// 會嚴格解碼 Json 設定、補預設值並執行基本檢查後回傳
func GetRunSettingByJSON(data []byte) (*RunSetting, error) {
	rs := &RunSetting{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(rs); err != nil {
		return nil, badInput(err, "can not unmarshall json byte")
	}

	// 設定檔初始化
	if err := rs.init(); err != nil {
		return nil, errs.Wrap(err, "run setting initialized err")
	}

	return rs, nil
}
