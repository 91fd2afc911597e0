package pipeline

import (
	"os"
	"runtime"
	"strconv"

	"github.com/ebosslab/rrboss/internal/logger"
)

// Workers picks the local multiprocessing width: the requested count, or
// half the hardware threads when unrequested, never less than one.
func Workers(requested int) int {
	if requested > 0 {
		return requested
	}
	n := runtime.NumCPU() / 2
	if n < 1 {
		n = 1
	}
	return n
}

// warnOversubscription flags worker configurations that can oversubscribe
// the node: local workers multiplied by per-worker threads must stay within
// the physical cores.
func warnOversubscription(log *logger.Logger, workers int) {
	raw, ok := os.LookupEnv("OMP_NUM_THREADS")
	if !ok {
		log.Warn("using multiprocessing, but the OMP_NUM_THREADS environment variable is not set; your system may be oversubscribed")
		return
	}

	threads, err := strconv.Atoi(raw)
	if err != nil || threads == 1 {
		return
	}
	log.Warnf("%d workers running with %d threads each (%d total); ensure this is <= the number of physical cores", workers, threads, workers*threads)
}
