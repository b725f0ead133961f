package batch

import (
	"os"
	"strconv"
	"strings"
)

// loadAvgPath is the Linux load average pseudo-file. On platforms where it
// does not exist the load check is skipped entirely.
const loadAvgPath = "/proc/loadavg"

// loadAvg returns the 1-minute load average, or ok=false when it cannot be
// read (non-Linux, restricted proc, malformed content).
func loadAvg() (float64, bool) {
	data, err := os.ReadFile(loadAvgPath)
	if err != nil {
		return 0, false
	}
	return parseLoadAvg(string(data))
}

func parseLoadAvg(s string) (float64, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// adjustForLoad lowers limit when the machine is already busy: at or above
// one runnable task per CPU the limit is halved, with a floor of one. An
// unreadable load average leaves the limit unchanged.
func adjustForLoad(limit, cpus int) int {
	load, ok := loadAvg()
	if !ok {
		return limit
	}
	return applyLoad(limit, cpus, load)
}

func applyLoad(limit, cpus int, load float64) int {
	if load < float64(cpus) {
		return limit
	}
	limit /= 2
	if limit < 1 {
		limit = 1
	}
	return limit
}
