package resultline

// Visitor receives the shape of a Go value one event at a time. Marshal
// walks the value and drives a line-building Visitor with it, but any
// consumer of value shapes can implement the interface.
//
// The expected event order for a keyed collection is BeginMap, then for
// each entry VisitKey followed by one scalar event naming the key, then
// VisitValue followed by the events of the value, and finally End. Scalar
// events outside that protocol, sequences, and nested maps are rejected by
// the line encoder with ErrUnsupportedShape or ErrUnnamedItem.
type Visitor interface {
	// BeginMap opens a keyed collection or record.
	BeginMap() error
	// BeginSeq opens a sequence. The line format has no sequence
	// rendering, so the encoder rejects it; other visitors may accept.
	BeginSeq() error
	// VisitKey announces that the next scalar event carries an entry key.
	VisitKey() error
	// VisitValue announces that the following events carry an entry value.
	VisitValue() error
	// End closes the collection opened by BeginMap or BeginSeq.
	End() error

	VisitBool(v bool) error
	VisitInt(v int64) error
	VisitUint(v uint64) error
	VisitFloat(v float64) error
	VisitChar(v rune) error
	VisitText(v string) error
	// VisitBytes carries raw bytes; the encoder renders them as text,
	// replacing invalid UTF-8 with the replacement rune.
	VisitBytes(v []byte) error
	// VisitEmpty marks an absent value. In value position it elides the
	// pending pair; as the entire top-level value it yields a bare line.
	VisitEmpty() error
	// VisitVariant announces a named variant carrying the given number of
	// payload values. The encoder discards the name: zero payloads encode
	// like VisitEmpty, one payload encodes transparently through the
	// following events, and more are rejected.
	VisitVariant(name string, payloads int) error
}

// Marshaler is implemented by types that produce their own visit events.
// Marshal uses it instead of reflection when available.
type Marshaler interface {
	MarshalResultLine(v Visitor) error
}
