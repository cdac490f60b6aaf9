package wire

import (
	"bytes"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Decoder is the incremental unpacker of spec §4.1: fed one complete
// transport message at a time, it yields every complete MessagePack value
// packed back-to-back within that message.
//
// A message is decoded in isolation: this implementation does not carry
// undecoded bytes over to the next message's Decoder. That is a deliberate
// simplification of "an incremental unpacker... fed raw messages as they
// arrive" — see DESIGN.md's Open Question ledger. It holds exactly because
// the transport contract (spec §6) delivers whole messages, and every
// frame this protocol emits is packed and sent as one call to Send; no
// frame is ever split across two transport messages by this implementation
// or by the reference Python one it's grounded on.
type Decoder struct {
	dec *msgpack.Decoder
}

// NewDecoder prepares a Decoder over one transport message's bytes.
func NewDecoder(msg []byte) *Decoder {
	return &Decoder{dec: msgpack.NewDecoder(bytes.NewReader(msg))}
}

// Next returns the next decoded MessagePack value, or ok=false once the
// message is exhausted.
func (d *Decoder) Next() (v interface{}, ok bool, err error) {
	if err := d.dec.Decode(&v); err != nil {
		if err == io.EOF {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

// DecodeAll decodes every value packed into msg, in order.
func DecodeAll(msg []byte) ([]interface{}, error) {
	d := NewDecoder(msg)
	var out []interface{}
	for {
		v, ok, err := d.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}
