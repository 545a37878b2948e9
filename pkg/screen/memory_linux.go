//go:build linux

package screen

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// detectSystemMemory reads MemTotal and MemAvailable from /proc/meminfo.
// Kernels older than 3.14 lack MemAvailable, in which case it is estimated
// from MemFree + Buffers + Cached.
func detectSystemMemory() (total int64, available int64) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	fields := make(map[string]int64, 8)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}
		kb, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}
		fields[strings.TrimSuffix(parts[0], ":")] = kb * KB
	}

	total = fields["MemTotal"]
	available = fields["MemAvailable"]
	if total > 0 && available == 0 {
		available = fields["MemFree"] + fields["Buffers"] + fields["Cached"]
	}
	return total, available
}
