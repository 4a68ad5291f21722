package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// runTest 清除 test cache 後跑全部測試，只印 ok / FAIL 與建置失敗的行。
func runTest() error {
	info.Println("running tests")
	return goTest([]string{"./...", "-cover", "-count=1"}, func(line string) {
		switch {
		case strings.HasPrefix(line, "ok"):
			good.Println(line)
		case strings.HasPrefix(line, "FAIL"),
			strings.Contains(line, "build failed"),
			strings.Contains(line, "setup failed"):
			bad.Println(line)
		}
	})
}

// runTestAll 全部套件的測試與 coverage，輸出不過濾。
func runTestAll() error {
	info.Println("running tests (all with coverage)")
	return goTest([]string{"./...", "-cover"}, func(line string) { fmt.Println(line) })
}

// runTestDetail verbose 測試，過濾掉 "[no test files]"。
func runTestDetail() error {
	info.Println("running tests (detail)")
	return goTest([]string{"./...", "-v", "-count=1"}, func(line string) {
		switch {
		case strings.Contains(line, "[no test files]"):
		case strings.HasPrefix(line, "ok"):
			good.Println(line)
		case strings.HasPrefix(line, "FAIL"):
			bad.Println(line)
		default:
			fmt.Println(line)
		}
	})
}

// goTest 先 go clean -testcache，再以 args 執行 go test，stdout/stderr 合併逐行交給 each。
func goTest(args []string, each func(line string)) error {
	clean := exec.Command("go", "clean", "-testcache")
	clean.Stderr = os.Stderr
	if err := clean.Run(); err != nil {
		return fmt.Errorf("go clean -testcache failed: %w", err)
	}

	cmd := exec.Command("go", append([]string{"test"}, args...)...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("error starting go test: %w", err)
	}
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		each(sc.Text())
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("tests finished with errors: %w", err)
	}
	return nil
}
