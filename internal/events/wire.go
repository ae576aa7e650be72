package events

import (
	"encoding/binary"
	"fmt"
)

// Kafka header keys set on every published record.
const (
	HeaderEventType     = "event_type"
	HeaderSchemaSubject = "schema_subject"
	HeaderEventID       = "event_id"
)

const (
	wireMagic     byte = 0
	wireHeaderLen      = 5
)

// Frame applies Confluent framing: a zero magic byte, the 4-byte big-endian
// schema id, then the payload.
func Frame(schemaID int, payload []byte) []byte {
	frame := make([]byte, wireHeaderLen+len(payload))
	frame[0] = wireMagic
	binary.BigEndian.PutUint32(frame[1:wireHeaderLen], uint32(schemaID))
	copy(frame[wireHeaderLen:], payload)
	return frame
}

// Unframe splits a framed record into its schema id and a copy of the payload.
func Unframe(value []byte) (int, []byte, error) {
	if len(value) < wireHeaderLen {
		return 0, nil, fmt.Errorf("invalid payload length: %d", len(value))
	}
	if value[0] != wireMagic {
		return 0, nil, fmt.Errorf("unexpected magic byte: %d", value[0])
	}
	schemaID := int(binary.BigEndian.Uint32(value[1:wireHeaderLen]))
	return schemaID, append([]byte(nil), value[wireHeaderLen:]...), nil
}
