package main

import (
	"log"

	"github.com/zintix-labs/ranlab/sdk/perf"
)

// makefile runner
func main() {
	bindVar()
	if err := perf.RunPProf(executeSimulator, cfg.pprofmode); err != nil {
		log.Fatal(err)
	}
}
