package ring_buffer

// Frame is one capture period of signed 16-bit mono samples. Frames are not
// modified once they have been handed to a buffer.
type Frame []int16

type Interface interface {
	Add(frame Frame)
	Frames() []Frame
	Read(target int) []int16
	Len() int
	Cap() int
	Clear()
}
