package event

// EventType discriminator for event payloads
type EventType int32

const (
	EventTypeUnknown EventType = iota
	EventTypeDayStarted
	EventTypeQuoteSnapshot
	EventTypeTradeExecuted
	EventTypeRebucketed
	EventTypeIssuerSettled
	EventTypeHolderPaid
	EventTypeAnchorAdjusted
)

func (et EventType) String() string {
	switch et {
	case EventTypeDayStarted:
		return "DayStarted"
	case EventTypeQuoteSnapshot:
		return "QuoteSnapshot"
	case EventTypeTradeExecuted:
		return "TradeExecuted"
	case EventTypeRebucketed:
		return "Rebucketed"
	case EventTypeIssuerSettled:
		return "IssuerSettled"
	case EventTypeHolderPaid:
		return "HolderPaid"
	case EventTypeAnchorAdjusted:
		return "AnchorAdjusted"
	default:
		return "Unknown"
	}
}

// Event is the interface all payloads implement.
type Event interface {
	// EventType returns the discriminator
	EventType() EventType

	// BucketID returns the bucket context (nil for global events)
	BucketID() *string
}

// Envelope wraps every event in the log. Sequence is the global
// monotonic ordinal assigned by the log; Day is the simulation day the
// event occurred on (NOT wall-clock time; the core never reads a
// clock).
type Envelope struct {
	Sequence int64
	Day      int
	Type     EventType
	Bucket   *string
	Payload  Event
}

// Sink receives events as they happen. It is injected into the
// executor, scheduler, and settlement engines so the pricing and
// feasibility logic itself stays side-effect free.
type Sink interface {
	Append(day int, evt Event)
}

// Log is the append-only in-memory event log. It is the only
// persistence the simulation has; external reporting consumes it after
// (or during) a run.
type Log struct {
	entries []Envelope
	nextSeq int64
}

func NewLog() *Log {
	return &Log{}
}

// Append wraps the payload in an envelope and appends it.
func (l *Log) Append(day int, evt Event) {
	l.entries = append(l.entries, Envelope{
		Sequence: l.nextSeq,
		Day:      day,
		Type:     evt.EventType(),
		Bucket:   evt.BucketID(),
		Payload:  evt,
	})
	l.nextSeq++
}

// Entries returns the log contents in append order.
func (l *Log) Entries() []Envelope {
	return l.entries
}

// Len returns the number of logged events.
func (l *Log) Len() int {
	return len(l.entries)
}

// NopSink discards events; used where a component requires a sink but
// the caller has no use for the stream.
type NopSink struct{}

func (NopSink) Append(int, Event) {}
