package led

import (
	"image/color"
	"sync"
)

// Recorder keeps the frames it is shown. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	frames [][]color.RGBA
	limit  int
}

// NewRecorder keeps at most limit frames, 0 keeps all.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// WriteColors stores a copy of pixels.
func (r *Recorder) WriteColors(pixels []color.RGBA) error {
	frame := make([]color.RGBA, len(pixels))
	copy(frame, pixels)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
	if r.limit > 0 && len(r.frames) > r.limit {
		r.frames = r.frames[len(r.frames)-r.limit:]
	}
	return nil
}

// Frames returns the recorded frames, oldest first.
func (r *Recorder) Frames() [][]color.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]color.RGBA(nil), r.frames...)
}

// Last returns the most recent frame, or nil.
func (r *Recorder) Last() []color.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return nil
	}
	return r.frames[len(r.frames)-1]
}
