package wire

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Frame is a decoded protocol frame: the tagged tuple described in spec §3
// and bit-exact in §6, pulled apart into named fields. Not every field is
// meaningful for every Kind; callers switch on Kind first.
type Frame struct {
	Kind      Kind
	ID        uint32
	MethodRef interface{} // string or int64, REQUEST only
	Args      []interface{}
	Kwargs    map[string]interface{} // nil if absent
	Err       *string                // RESPONSE only
	Result    interface{}            // RESPONSE only
	Value     interface{}            // *_STREAM_CHUNK only
}

// MethodDescriptor is the four-tuple catalog entry carried in the
// handshake's rpc_info (spec §3, §6): [signature, doc, hasRequestStream,
// hasResponseStream].
type MethodDescriptor struct {
	Signature         string
	Doc               string
	HasRequestStream  bool
	HasResponseStream bool
}

func (d MethodDescriptor) toWire() []interface{} {
	return []interface{}{d.Signature, d.Doc, d.HasRequestStream, d.HasResponseStream}
}

func descriptorFromWire(v interface{}) (MethodDescriptor, error) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 4 {
		return MethodDescriptor{}, fmt.Errorf("wire: malformed method descriptor %#v", v)
	}
	sig, ok := arr[0].(string)
	if !ok {
		return MethodDescriptor{}, fmt.Errorf("wire: method descriptor signature is not a string")
	}
	doc, _ := arr[1].(string)
	reqStream, _ := arr[2].(bool)
	respStream, _ := arr[3].(bool)
	return MethodDescriptor{Signature: sig, Doc: doc, HasRequestStream: reqStream, HasResponseStream: respStream}, nil
}

// HandshakeHello is the client's opening frame: spec §4.6 step 1.
type HandshakeHello struct {
	Version string
}

// HandshakeDescriptor is the server's reply on a version match: spec §4.6
// step 2.
type HandshakeDescriptor struct {
	Version      string
	MethodIDType MethodIDType
	RPCInfo      []MethodDescriptor
	MinMsgID     *uint32
	MaxMsgID     *uint32
}

// HandshakeError is the server's reply on a version mismatch, after which it
// closes the transport.
type HandshakeError struct {
	Error string
}

// MarshalHello packs the client hello frame.
func MarshalHello(h HandshakeHello) ([]byte, error) {
	return msgpack.Marshal(map[string]interface{}{"version": h.Version})
}

// MarshalDescriptor packs the server descriptor frame.
func MarshalDescriptor(d HandshakeDescriptor) ([]byte, error) {
	m := map[string]interface{}{
		"version":        d.Version,
		"method_id_type": int8(d.MethodIDType),
		"rpc_info":       descriptorsToWire(d.RPCInfo),
	}
	if d.MinMsgID != nil {
		m["min_msgid"] = *d.MinMsgID
	}
	if d.MaxMsgID != nil {
		m["max_msgid"] = *d.MaxMsgID
	}
	return msgpack.Marshal(m)
}

// MarshalHandshakeError packs the server's version-mismatch error frame.
func MarshalHandshakeError(e HandshakeError) ([]byte, error) {
	return msgpack.Marshal(map[string]interface{}{"error": e.Error})
}

func descriptorsToWire(ds []MethodDescriptor) []interface{} {
	out := make([]interface{}, len(ds))
	for i, d := range ds {
		out[i] = d.toWire()
	}
	return out
}

// ParseHandshakeMessage decodes the raw map carried in either handshake
// frame, distinguishing the three shapes by their keys.
func ParseHandshakeMessage(raw map[string]interface{}) (hello *HandshakeHello, desc *HandshakeDescriptor, herr *HandshakeError, err error) {
	if e, ok := raw["error"]; ok {
		s, _ := e.(string)
		return nil, nil, &HandshakeError{Error: s}, nil
	}
	version, _ := raw["version"].(string)
	if _, ok := raw["rpc_info"]; !ok {
		if version == "" {
			return nil, nil, nil, fmt.Errorf("wire: handshake message has neither version nor error: %#v", raw)
		}
		return &HandshakeHello{Version: version}, nil, nil, nil
	}
	midType, err := toInt64(raw["method_id_type"])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("wire: handshake descriptor method_id_type: %w", err)
	}
	infoRaw, _ := raw["rpc_info"].([]interface{})
	info := make([]MethodDescriptor, len(infoRaw))
	for i, r := range infoRaw {
		d, err := descriptorFromWire(r)
		if err != nil {
			return nil, nil, nil, err
		}
		info[i] = d
	}
	d := &HandshakeDescriptor{
		Version:      version,
		MethodIDType: MethodIDType(midType),
		RPCInfo:      info,
	}
	if v, ok := raw["min_msgid"]; ok {
		n, err := toUint32(v)
		if err == nil {
			d.MinMsgID = &n
		}
	}
	if v, ok := raw["max_msgid"]; ok {
		n, err := toUint32(v)
		if err == nil {
			d.MaxMsgID = &n
		}
	}
	return nil, d, nil, nil
}

// MarshalRequest packs a REQUEST frame (spec §6). kwargs may be nil, in
// which case the 4-element shape (no kwargs) is used.
func MarshalRequest(id uint32, methodRef interface{}, args []interface{}, kwargs map[string]interface{}) ([]byte, error) {
	if args == nil {
		args = []interface{}{}
	}
	if len(kwargs) == 0 {
		return msgpack.Marshal([]interface{}{Request, id, methodRef, args})
	}
	return msgpack.Marshal([]interface{}{Request, id, methodRef, args, kwargs})
}

// MarshalResponse packs a RESPONSE frame.
func MarshalResponse(id uint32, errStr *string, result interface{}) ([]byte, error) {
	var errVal interface{}
	if errStr != nil {
		errVal = *errStr
	}
	return msgpack.Marshal([]interface{}{Response, id, errVal, result})
}

// MarshalStreamChunk packs a REQUEST_STREAM_CHUNK or RESPONSE_STREAM_CHUNK
// frame depending on kind.
func MarshalStreamChunk(kind Kind, id uint32, value interface{}) ([]byte, error) {
	return msgpack.Marshal([]interface{}{kind, id, value})
}

// MarshalStreamEnd packs a REQUEST_STREAM_END or RESPONSE_STREAM_END frame.
func MarshalStreamEnd(kind Kind, id uint32) ([]byte, error) {
	return msgpack.Marshal([]interface{}{kind, id})
}

// MarshalCancel packs a REQUEST_CANCEL frame.
func MarshalCancel(id uint32) ([]byte, error) {
	return msgpack.Marshal([]interface{}{RequestCancel, id})
}

// ParseFrame interprets a decoded array as an application frame (everything
// after the handshake). raw is whatever the Decoder produced for one
// MessagePack value.
func ParseFrame(raw interface{}) (Frame, error) {
	arr, ok := raw.([]interface{})
	if !ok || len(arr) < 2 {
		return Frame{}, fmt.Errorf("wire: frame is not an array of at least 2 elements: %#v", raw)
	}
	kindN, err := toInt64(arr[0])
	if err != nil {
		return Frame{}, fmt.Errorf("wire: frame kind: %w", err)
	}
	kind := Kind(kindN)
	id, err := toUint32(arr[1])
	if err != nil {
		return Frame{}, fmt.Errorf("wire: frame id: %w", err)
	}
	f := Frame{Kind: kind, ID: id}
	switch kind {
	case Request:
		if len(arr) < 4 {
			return Frame{}, fmt.Errorf("wire: REQUEST frame too short: %#v", arr)
		}
		f.MethodRef = normalizeMethodRef(arr[2])
		args, _ := arr[3].([]interface{})
		f.Args = args
		if len(arr) >= 5 {
			kwargs, _ := ToStringMap(arr[4])
			f.Kwargs = kwargs
		}
	case Response:
		if len(arr) < 4 {
			return Frame{}, fmt.Errorf("wire: RESPONSE frame too short: %#v", arr)
		}
		if arr[2] != nil {
			s := fmt.Sprint(arr[2])
			f.Err = &s
		}
		f.Result = arr[3]
	case RequestStreamChunk, ResponseStreamChunk:
		if len(arr) < 3 {
			return Frame{}, fmt.Errorf("wire: stream chunk frame too short: %#v", arr)
		}
		f.Value = arr[2]
	case RequestStreamEnd, ResponseStreamEnd, RequestCancel:
		// id only
	default:
		return Frame{}, fmt.Errorf("wire: unknown frame kind %d", kindN)
	}
	return f, nil
}

func normalizeMethodRef(v interface{}) interface{} {
	if n, err := toInt64(v); err == nil {
		return n
	}
	if s, ok := v.(string); ok {
		return s
	}
	return v
}

// ToStringMap coerces a decoded msgpack map to map[string]interface{},
// accommodating vmihailenco/msgpack's map[interface{}]interface{} fallback
// for non-string-keyed wire maps. Exported so callers outside this package
// (the handshake reader in the root package) don't need their own copy.
func ToStringMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			if s, ok := k.(string); ok {
				out[s] = val
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("not an integer: %#v", v)
	}
}

func toUint32(v interface{}) (uint32, error) {
	n, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative id %d", n)
	}
	return uint32(n), nil
}
