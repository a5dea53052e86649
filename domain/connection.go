package domain

// ConnectionStatus is the lifecycle state of the realtime connection.
type ConnectionStatus int

const (
	StatusIdle ConnectionStatus = iota
	StatusConnecting
	StatusOpen
	StatusClosed
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ConnectionState is a read-only snapshot published by the connection
// manager. ReconnectAttempts resets to zero on every successful open.
type ConnectionState struct {
	Status            ConnectionStatus
	ReconnectAttempts int
}
