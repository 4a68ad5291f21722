package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ksAlarm KS p-value 低於此值標紅。
const ksAlarm = 0.01

// runPresets 對每個預設跑 n 筆並印出平均與 KS p-value，用於檢查預設與取樣器是否一致。
func runPresets(dir string, n int) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Name()))
		if f.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			return err
		}
		var head struct {
			Name string `yaml:"name"`
		}
		if err := yaml.Unmarshal(raw, &head); err != nil {
			return fmt.Errorf("%s: %w", f.Name(), err)
		}
		if head.Name != "" {
			names = append(names, head.Name)
		}
	}
	sort.Strings(names)

	info.Printf("running %d presets, n=%d\n", len(names), n)
	failed := 0
	for _, name := range names {
		var out bytes.Buffer
		cmd := exec.Command("go", "run", "./cmd/run",
			"-preset", name, "-n", fmt.Sprint(n), "-out", "json", "-log-mode", "silence")
		cmd.Stdout = &out
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			bad.Printf("%-18s run failed: %v\n", name, err)
			failed++
			continue
		}
		var res struct {
			Report struct {
				Summary struct {
					Dist string
					Mean float64
				}
				Theory *struct {
					Mean     *float64
					KSPValue float64
				}
			} `json:"report"`
		}
		if err := json.Unmarshal(out.Bytes(), &res); err != nil {
			bad.Printf("%-18s bad output: %v\n", name, err)
			failed++
			continue
		}
		s, th := res.Report.Summary, res.Report.Theory
		if th == nil {
			warn.Printf("%-18s %-14s mean=%.6g (no reference)\n", name, s.Dist, s.Mean)
			continue
		}
		line := fmt.Sprintf("%-18s %-14s mean=%.6g ks_p=%.4f", name, s.Dist, s.Mean, th.KSPValue)
		if th.KSPValue < ksAlarm {
			bad.Println(line)
			failed++
		} else {
			good.Println(line)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d presets failed", failed)
	}
	return nil
}
