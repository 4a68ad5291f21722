package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zintix-labs/ranlab/errs"
	"github.com/zintix-labs/ranlab/spec"
)

var (
	ErrDupName   = errs.NewFatal("duplicate preset name")
	ErrNotFound  = errs.NewWarn("preset does not exist in catalog")
	ErrNotFrozen = errs.NewFatal("catalog is not frozen yet")
)

// Entry 一個預設取樣設定：名稱對應到設定檔。
type Entry struct {
	Name       string
	ConfigName string
}

// Summary 給 API / CLI 列表用。
type Summary struct {
	Name   string             `json:"name"`
	Desc   string             `json:"desc,omitempty"`
	Dist   string             `json:"dist"`
	N      int                `json:"n"`
	Engine string             `json:"engine"`
	Params map[string]float64 `json:"params,omitempty"`
	Config string             `json:"config"`
}

type Catalog struct {
	byName map[string]Entry
	names  []string            // 用來穩定排序
	unique map[string]struct{} // 一個設定檔只能對應一個預設
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byName: map[string]Entry{},
		names:  make([]string, 0, 32),
		unique: map[string]struct{}{},
		config: multFS,
		frozen: false,
	}, nil
}

// Register 批次註冊。全部通過檢查才寫入，任一失敗則不改動 catalog。
func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range metas {
		meta := &metas[i]
		meta.Name = strings.ToLower(strings.TrimSpace(meta.Name))
		if meta.Name == "" {
			return errs.NewFatal("preset name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.NewFatal(fmt.Sprintf("config file not found: %s", meta.ConfigName))
		}
		if _, ok := c.byName[meta.Name]; ok {
			return ErrDupName.With(meta.Name)
		}
		if _, ok := c.unique[meta.ConfigName]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		if _, ok := seenName[meta.Name]; ok {
			return ErrDupName.With(meta.Name)
		}
		if _, ok := seenCfg[meta.ConfigName]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		c.unique[meta.ConfigName] = struct{}{}
		c.byName[meta.Name] = meta
		c.names = append(c.names, meta.Name)
	}
	sort.Strings(c.names)
	return nil
}

// RegisterAll
//
// 掃描所有設定檔來源，解析成 *spec.RunSetting 後以設定內的 name 批次註冊。
//
// Fail-fast：任一檔案讀取/解析/檢查失敗立即回傳 error；全部成功才一次寫入。
// 依檔名排序處理，行為可重現。
func (c *Catalog) RegisterAll() error {
	files := make([]string, 0, len(c.config.index))
	for name := range c.config.index {
		if strings.HasPrefix(name, ".") {
			continue
		}
		files = append(files, name)
	}
	if len(files) == 0 {
		return errs.NewFatal("no preset files found to register")
	}
	sort.Strings(files)

	entries := make([]Entry, 0, len(files))
	for _, base := range files {
		rs, err := c.load(base)
		if err != nil {
			return errs.Wrap(err, fmt.Sprintf("parse preset failed: %s", base))
		}
		entries = append(entries, Entry{Name: rs.Name, ConfigName: base})
	}
	return c.Register(entries...)
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	m, ok := c.byName[name]
	return m, ok
}

func (c *Catalog) Names() []string {
	if len(c.names) == 0 {
		return nil
	}
	return append([]string(nil), c.names...)
}

func (c *Catalog) All() []Entry {
	m := make([]Entry, 0, len(c.names))
	for _, name := range c.names {
		m = append(m, c.byName[name])
	}
	return m
}

func (c *Catalog) Cfg() *multiFS {
	return c.config
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

// RunSettingByName
//
// 讀取 fs 中的 YAML/JSON 設定，初始化並檢查後回傳。每次呼叫都是新的副本。
func (c *Catalog) RunSettingByName(name string) (*spec.RunSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, ErrNotFound.With(name)
	}
	return c.load(e.ConfigName)
}

// Summaries 依名稱排序回傳所有預設的摘要，只能在 Freeze 之後呼叫。
func (c *Catalog) Summaries() ([]Summary, error) {
	if !c.frozen {
		return nil, ErrNotFrozen
	}
	out := make([]Summary, 0, len(c.names))
	for _, e := range c.All() {
		rs, err := c.load(e.ConfigName)
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{
			Name:   e.Name,
			Desc:   rs.Desc,
			Dist:   rs.Dist,
			N:      rs.N,
			Engine: rs.Engine,
			Params: rs.Params,
			Config: e.ConfigName,
		})
	}
	return out, nil
}

func (c *Catalog) load(base string) (*spec.RunSetting, error) {
	src, ok := c.config.GetFS(base)
	if !ok {
		return nil, errs.NewWarn("file name does not exist in catalog")
	}
	raw, err := fs.ReadFile(src, base)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	return parseRunSettingByExt(base, raw)
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	// 1) 不能包含路徑或類似字元
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must be a basename; no / \\\\ :) ", file))
	}
	// 2) 必須以 .yaml/.yml/.json 結尾（大小寫不敏感）
	if !isConfigExt(file) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file))
	}
	// 3) 不能以 . 開頭（防止直接 .yaml / .yml）
	if strings.HasPrefix(file, ".") {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (cannot start with '.')", file))
	}
	return nil
}

func isConfigExt(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func parseRunSettingByExt(filename string, raw []byte) (*spec.RunSetting, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return spec.GetRunSettingByYAML(raw)
	case ".json":
		return spec.GetRunSettingByJSON(raw)
	default:
		return nil, errs.NewFatal(fmt.Sprintf("unsupported config format: %q", filename))
	}
}

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
	}

	m := &multiFS{
		src:   src,
		index: make(map[string]int, 64),
	}

	// 建索引時一併檢查重複
	for i := 0; i < len(src); i++ {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// 只允許根目錄，任何子目錄都視為違反合約
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("preset FS must be flat (no subdirectories): %q", path))
			}
			if !isConfigExt(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i))
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], ok
	}
	return nil, false
}

// Sources exposes preset FS sources for read-only iteration.
func (m *multiFS) Sources() []fs.FS {
	if m == nil || len(m.src) == 0 {
		return nil
	}
	return append([]fs.FS(nil), m.src...)
}
