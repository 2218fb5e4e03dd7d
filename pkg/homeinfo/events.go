package homeinfo

// StateChangeEvent describes one observable change of the client state.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// EventHandler receives client events.
// Methods are called synchronously, in mutation order. Implementations
// should return quickly and must not call Mount or Unmount.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to
// override only the events of interest.
type BaseEventHandler struct{}

// OnStateChange does nothing.
func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
