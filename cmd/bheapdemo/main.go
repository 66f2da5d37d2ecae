// Copyright 2024 The bheap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command bheapdemo exercises the bheap allocator against real OS-backed
// memory: `check` runs the spec.md §8 end-to-end scenarios and
// self-checks the heap after each one; `bench` runs the varying-size
// churn scenario at a configurable chunk count and reports throughput.
//
// Resource knobs are wired the way a container-aware Go service in this
// corpus is expected to: GOMAXPROCS is right-sized to the CPU quota via
// go.uber.org/automaxprocs, and GOMEMLIMIT is right-sized to the cgroup
// memory limit via github.com/KimMachineGun/automemlimit, before any
// allocator work runs (SPEC_FULL.md §3.3).
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/rs/zerolog"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/onemorebyte/bheap"
	"github.com/onemorebyte/bheap/internal/harness"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if _, err := maxprocs.Set(); err != nil {
		log.Warn().Err(err).Msg("bheapdemo: could not set GOMAXPROCS")
	}
	if _, err := memlimit.SetGoMemLimitWithOpts(); err != nil {
		log.Warn().Err(err).Msg("bheapdemo: could not set GOMEMLIMIT")
	} else {
		log.Info().Msg("bheapdemo: GOMEMLIMIT set from cgroup limit")
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "check":
		runCheck(log)
	case "bench":
		runBench(log)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: bheapdemo <check|bench> [flags]")
}

func runCheck(log zerolog.Logger) {
	bheap.SetLogger(log)
	h := bheap.NewOSHeap()

	steps := []struct {
		name string
		run  func() error
	}{
		{"tiny-alloc-free", func() error { return harness.TinyAllocFree(h) }},
		{"varying-size-churn", func() error { return harness.VaryingSizeChurn(h, 500) }},
		{"coalescing", func() error { return harness.Coalescing(h) }},
		{"expansion-on-demand", func() error {
			return harness.ExpansionOnDemand(h, bheap.NewOSPageSource().PageSize())
		}},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", step.name, err)
			h.Dump(os.Stderr)
			os.Exit(1)
		}
		fmt.Printf("ok   %s\n", step.name)
	}
}

func runBench(log zerolog.Logger) {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	n := fs.Int("n", 5000, "number of blocks to churn through")
	fs.Parse(os.Args[2:])

	h := bheap.NewOSHeap()

	start := time.Now()
	if err := harness.VaryingSizeChurn(h, *n); err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	stats := h.Stats()
	fmt.Printf("blocks=%d elapsed=%s allocs=%d frees=%d expansions=%d live_bytes=%d\n",
		*n, elapsed, stats.Allocations, stats.Frees, stats.Expansions, stats.LiveBytes)
}
