package announcer

// Interface gives spoken and audible feedback. Calls return immediately; the
// output is produced in order by a background worker.
type Interface interface {
	Say(text string)
	Play(path string)
	Close() error
}
