package mas

// EventKind is an event tag that should be used to differentiate between different event types.
type EventKind int

const (
	// EventUnknown is a sentinel value.
	// You should never receive an event of this kind.
	EventUnknown EventKind = iota

	// EventSongFinished is emitted when a layer started with PlayOnce
	// reaches the end of its order list. The layer is already stopped
	// when the handler runs.
	EventSongFinished

	// EventSongMessage is emitted by the SFx effect.
	//
	// Event.Param holds x in the low nibble and the layer in the high nibble,
	// so a single handler can tell the main layer and jingle messages apart.
	EventSongMessage

	// EventSongError is emitted when the pattern data turns out to be
	// corrupt during the playback. The layer is stopped.
	EventSongError
)

func (k EventKind) String() string {
	switch k {
	case EventSongFinished:
		return "SongFinished"
	case EventSongMessage:
		return "SongMessage"
	case EventSongError:
		return "SongError"
	default:
		return "Unknown"
	}
}

// Event holds a single playback event data.
// This object is an argument to the Engine.SetEventHandler function.
//
// The handler runs synchronously from the tick processing,
// it must not call back into the engine mixing functions.
type Event struct {
	Kind EventKind

	// Layer is the layer that produced the event.
	Layer Layer

	Param uint8
}

// SetEventHandler installs an event listener to the engine.
//
// f is called on every engine event; a nil f removes the handler.
func (e *Engine) SetEventHandler(f func(ev Event)) {
	e.eventHandler = f
}

func (e *Engine) emit(ev Event) {
	if e.eventHandler != nil {
		e.eventHandler(ev)
	}
}
