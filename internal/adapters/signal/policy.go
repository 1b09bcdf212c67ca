package signal

import "github.com/dkeye/Wordbrain/internal/protocol"

// BackpressureAction is what Send does once the outbound queue is full.
type BackpressureAction int

const (
	DropFrame BackpressureAction = iota
	Reconnect
)

type Policy interface {
	OnBackpressure(t protocol.Type) BackpressureAction
}

// SimplePolicy treats a full queue as a stalled link: the socket is dropped
// and the usual retry schedule takes over.
type SimplePolicy struct{}

func (SimplePolicy) OnBackpressure(protocol.Type) BackpressureAction { return Reconnect }

// DropPolicy only discards the frame.
type DropPolicy struct{}

func (DropPolicy) OnBackpressure(protocol.Type) BackpressureAction { return DropFrame }
