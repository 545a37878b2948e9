//go:build linux

package screen

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// detectOptimalWorkers returns the number of alignment workers to start when
// none is configured. On hybrid Intel parts only the performance cores are
// counted.
func detectOptimalWorkers() int {
	if n := countPerfCoresLinux(); n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// countPerfCoresLinux groups /proc/cpuinfo entries by physical core and counts
// the cores clocked within 10% of the mean. It returns 0 when the machine looks
// homogeneous or cpuinfo cannot be read.
func countPerfCoresLinux() int {
	f, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return 0
	}
	defer f.Close()

	coreMHz := make(map[int]float64)
	coreID := -1

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "processor":
			coreID = -1
		case "core id":
			if id, err := strconv.Atoi(value); err == nil {
				coreID = id
			}
		case "cpu MHz":
			mhz, err := strconv.ParseFloat(value, 64)
			if err != nil || coreID < 0 {
				continue
			}
			if mhz > coreMHz[coreID] {
				coreMHz[coreID] = mhz
			}
		}
	}

	if len(coreMHz) <= 2 {
		return 0
	}

	var sum float64
	for _, mhz := range coreMHz {
		sum += mhz
	}
	mean := sum / float64(len(coreMHz))

	perf := 0
	for _, mhz := range coreMHz {
		if mhz >= mean*0.9 {
			perf++
		}
	}
	if perf == 0 || perf == len(coreMHz) {
		return 0
	}
	return perf
}
