//go:build !darwin && !linux

package screen

import "runtime"

func detectOptimalWorkers() int {
	return runtime.NumCPU()
}
