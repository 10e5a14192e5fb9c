package core

// Frame is one encoded message for a consumer.
type Frame []byte

// SignalConnection is a consumer transport the session's events are pushed to.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
