package batch

// Event is a notification from a running batch to the foreground.
type Event interface {
	batchEvent()
}

// ItemStartEvent is sent before an item's action is called.
type ItemStartEvent struct {
	Op    string
	Label string
	Index int
	Total int
}

// ProgressEvent carries the estimated progress of the current item.
type ProgressEvent struct {
	Op         string
	Label      string
	Index      int
	Total      int
	Percent    float64
	Throughput string
}

// ItemResultEvent is sent after an item's action returned.
type ItemResultEvent struct {
	Op      string
	Label   string
	Index   int
	Total   int
	OK      bool
	Message string
}

// DoneEvent is sent exactly once per user-facing operation.
type DoneEvent struct {
	Result Result
}

func (ItemStartEvent) batchEvent()  {}
func (ProgressEvent) batchEvent()   {}
func (ItemResultEvent) batchEvent() {}
func (DoneEvent) batchEvent()       {}

// Sink receives events. Send is called from the goroutine running the batch.
type Sink interface {
	Send(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Send(ev Event) { f(ev) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// ChanSink queues events on a buffered channel. Progress events are dropped
// when the buffer is full; all other events wait for room.
type ChanSink chan Event

func (c ChanSink) Send(ev Event) {
	if _, ok := ev.(ProgressEvent); ok {
		select {
		case c <- ev:
		default:
		}
		return
	}
	c <- ev
}
