//go:build govips && cgo

package pipeline

import (
	"runtime"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsMu   sync.Mutex
	vipsRefs int
)

// Startup starts libvips on first use. Every call must be paired with a
// Shutdown; libvips stops when the last holder releases it.
func Startup() error {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsRefs == 0 {
		vips.LoggingSettings(nil, vips.LogLevelWarning)
		vips.Startup(&vips.Config{
			ConcurrencyLevel: runtime.NumCPU(),
			MaxCacheFiles:    0,
			MaxCacheMem:      64 << 20,
			MaxCacheSize:     50,
		})
	}
	vipsRefs++
	return nil
}

func Shutdown() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsRefs == 0 {
		return
	}
	vipsRefs--
	if vipsRefs == 0 {
		vips.Shutdown()
	}
}

func newEncoder() (Encoder, error) {
	return govipsEncoder{}, nil
}
