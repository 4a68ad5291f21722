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

package main

import (
	"fmt"
	"os"
)

func main() {
	exeCmd()
}

func exeCmd() {
	// 如果沒有送任何參數進來，我們告訴用戶需要帶上 task
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts [test|test-all|test-detail|presets]")
		os.Exit(1)
	}
	selectTask(os.Args[1])
}

func selectTask(task string) {
	var err error
	switch task {
	case "test":
		err = runTest()
	case "test-all":
		err = runTestAll()
	case "test-detail":
		err = runTestDetail()
	case "presets":
		err = runPresets("presets", 20000)
	default:
		warn.Printf("Unknown task: %s\n", task)
		os.Exit(1)
	}
	if err != nil {
		bad.Println(err)
		os.Exit(1)
	}
}
