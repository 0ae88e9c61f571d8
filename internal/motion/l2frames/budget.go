package l2frames

import (
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/banshee-data/mvscript/internal/monitoring"
)

// CacheCapacity converts a memory budget into a number of cached records.
// A budget of zero or less disables caching. When clampToAvailable is set,
// the budget is limited to half of the memory currently available.
func CacheCapacity(recordSize, maxMemoryMB int, clampToAvailable bool) int {
	if maxMemoryMB <= 0 || recordSize <= 0 {
		return 0
	}
	budget := uint64(maxMemoryMB) << 20
	if clampToAvailable {
		if vm, err := mem.VirtualMemory(); err == nil && vm.Available > 0 && vm.Available/2 < budget {
			monitoring.Logf("[FrameStore] Clamping cache budget from %d MB to %d MB (available memory)", maxMemoryMB, vm.Available/2>>20)
			budget = vm.Available / 2
		}
	}
	n := budget / uint64(recordSize)
	if n < 1 {
		n = 1
	}
	return int(n)
}
