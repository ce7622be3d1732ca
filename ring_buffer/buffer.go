package ring_buffer

type bufImpl struct {
	buffer []Frame
	head   int
	size   int
}

func New(capacity int) Interface {
	if capacity < 1 {
		capacity = 1
	}

	return &bufImpl{
		buffer: make([]Frame, capacity),
		head:   0,
	}
}

// Add stores the frame, evicting the oldest one once the buffer is full.
func (r *bufImpl) Add(frame Frame) {
	r.buffer[r.head] = frame
	r.head = (r.head + 1) % len(r.buffer)

	if r.size < len(r.buffer) {
		r.size++
	}
}

// Frames returns the buffered frames oldest first without removing them.
func (r *bufImpl) Frames() []Frame {
	frames := make([]Frame, r.size)
	start := (r.head - r.size + len(r.buffer)) % len(r.buffer)

	for i := 0; i < r.size; i++ {
		frames[i] = r.buffer[(start+i)%len(r.buffer)]
	}

	return frames
}

// Read concatenates the buffered frames in temporal order. A positive target
// zero-pads (or truncates) the result to exactly target samples.
func (r *bufImpl) Read(target int) []int16 {
	frames := r.Frames()

	total := 0
	for _, f := range frames {
		total += len(f)
	}

	if target <= 0 {
		target = total
	}

	samples := make([]int16, target)
	n := 0

	for _, f := range frames {
		if n >= target {
			break
		}

		n += copy(samples[n:], f)
	}

	return samples
}

func (r *bufImpl) Len() int {
	return r.size
}

func (r *bufImpl) Cap() int {
	return len(r.buffer)
}

func (r *bufImpl) Clear() {
	for i := 0; i < len(r.buffer); i++ {
		r.buffer[i] = nil
	}

	r.head = 0
	r.size = 0
}
