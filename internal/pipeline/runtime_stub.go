//go:build !govips || !cgo

package pipeline

// Startup and Shutdown are no-ops without libvips; the standard library
// encoder needs no global state.
func Startup() error { return nil }

func Shutdown() {}

func newEncoder() (Encoder, error) {
	return stdlibEncoder{}, nil
}
