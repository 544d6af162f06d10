package audio

// Drain reads from ch until the channel is closed, discarding all values.
// Use this to prevent goroutine leaks when a streaming channel (e.g. a
// realtime session's event channel) must be consumed but its data is not
// needed.
func Drain[T any](ch <-chan T) {
	for range ch {
	}
}
