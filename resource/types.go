package resource

// Handle is an opaque reference to a resource in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// TypeID identifies what kind of native resource a handle refers to.
type TypeID uint32

const (
	TypeUnknown TypeID = iota
	TypeInputStream
	TypeOutputStream
)

func (t TypeID) String() string {
	switch t {
	case TypeInputStream:
		return "input-stream"
	case TypeOutputStream:
		return "output-stream"
	default:
		return "unknown"
	}
}

// Event types for resource lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	// EventRemoved reports a value leaving the table without its destructor.
	EventRemoved
)

func (e EventType) String() string {
	switch e {
	case EventCreated:
		return "created"
	case EventRemoved:
		return "removed"
	default:
		return "dropped"
	}
}

// Event represents a resource lifecycle event.
type Event struct {
	Value  any
	Err    error
	Handle Handle
	TypeID TypeID
	Type   EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// Backend provides the underlying storage mechanism for resources.
type Backend interface {
	// Create stores a value and returns a handle.
	Create(typeID TypeID, value any) (Handle, error)

	// Delete removes a resource and returns (value, true) if it was present.
	// The value's destructor is not run.
	Delete(handle Handle) (any, bool)

	// Close runs the destructor of every remaining value and rejects further use.
	Close() error
}

// Dropper is optionally implemented by resource values that need cleanup.
type Dropper interface {
	Drop() error
}
