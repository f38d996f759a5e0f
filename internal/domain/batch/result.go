// Package batch holds the per-window outcome type the embedding pipeline
// reports in partial-results mode.
package batch

// WindowStatus is the processing outcome of one pipeline window.
type WindowStatus string

// Window status values.
const (
	StatusOK    WindowStatus = "ok"
	StatusError WindowStatus = "error"
)

// Window is the outcome of embedding one contiguous window of input texts.
// Batch is the zero-based window index, Offset the input index of its first
// text, Size the number of texts in the window.
type Window struct {
	batch  int
	offset int
	size   int
	status WindowStatus
	err    error
}

// NewOK creates a successful window outcome.
func NewOK(batch, offset, size int) Window {
	return Window{batch: batch, offset: offset, size: size, status: StatusOK}
}

// NewError creates a failed window outcome.
func NewError(batch, offset, size int, err error) Window {
	return Window{batch: batch, offset: offset, size: size, status: StatusError, err: err}
}

// Batch returns the zero-based window index.
func (w Window) Batch() int { return w.batch }

// Offset returns the input index of the window's first text.
func (w Window) Offset() int { return w.offset }

// Size returns the number of texts in the window.
func (w Window) Size() int { return w.size }

// Status returns the processing outcome.
func (w Window) Status() WindowStatus { return w.status }

// Err returns the error, if any.
func (w Window) Err() error { return w.err }
