// Package serde defines the primitives to serialize and deserialize (serde)
// the data models stored on the ledger.
//
// A message is serialized through a context that defines the format (e.g.
// JSON). The message looks up the format engine registered for its type and
// the format of the context, so that the data model is decoupled from its
// encoding.
package serde

import "io"

// Format is the identifier of a format implementation.
type Format string

const (
	// FormatJSON is the identifier for JSON formats.
	FormatJSON Format = "JSON"
)

// Message is the interface that a data model must implement so that it can be
// serialized.
type Message interface {
	// Serialize returns the serialized version of the message.
	Serialize(ctx Context) ([]byte, error)
}

// Factory is the interface that a data model factory must implement so that
// a message can be deserialized.
type Factory interface {
	// Deserialize returns the message from the data.
	Deserialize(ctx Context, data []byte) (Message, error)
}

// FormatEngine is the interface to implement the encoding of a family of
// messages in a given format.
type FormatEngine interface {
	// Encode returns the bytes of the message.
	Encode(ctx Context, message Message) ([]byte, error)

	// Decode returns the message populated from the data. It must reject any
	// input that does not match the schema of the format.
	Decode(ctx Context, data []byte) (Message, error)
}

// Fingerprinter is an interface to fingerprint an object.
type Fingerprinter interface {
	// Fingerprint writes a deterministic binary representation of the object
	// into the writer.
	Fingerprint(writer io.Writer) error
}
