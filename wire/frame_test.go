package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalRequestRoundTrip(t *testing.T) {
	b, err := MarshalRequest(7, "div", []interface{}{1, 3}, nil)
	require.NoError(t, err)

	vals, err := DecodeAll(b)
	require.NoError(t, err)
	require.Len(t, vals, 1)

	f, err := ParseFrame(vals[0])
	require.NoError(t, err)
	assert.Equal(t, Request, f.Kind)
	assert.Equal(t, uint32(7), f.ID)
	assert.Equal(t, "div", f.MethodRef)
	assert.Nil(t, f.Kwargs)
}

func TestMarshalRequestWithKwargs(t *testing.T) {
	b, err := MarshalRequest(1, int64(2), []interface{}{}, map[string]interface{}{"delay": 2.0})
	require.NoError(t, err)

	vals, err := DecodeAll(b)
	require.NoError(t, err)
	f, err := ParseFrame(vals[0])
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.MethodRef)
	require.NotNil(t, f.Kwargs)
	assert.Equal(t, 2.0, f.Kwargs["delay"])
}

func TestMarshalResponseError(t *testing.T) {
	msg := "division by zero"
	b, err := MarshalResponse(3, &msg, nil)
	require.NoError(t, err)

	vals, err := DecodeAll(b)
	require.NoError(t, err)
	f, err := ParseFrame(vals[0])
	require.NoError(t, err)
	assert.Equal(t, Response, f.Kind)
	require.NotNil(t, f.Err)
	assert.Equal(t, msg, *f.Err)
}

func TestMarshalResponseResult(t *testing.T) {
	b, err := MarshalResponse(3, nil, 42.0)
	require.NoError(t, err)

	vals, err := DecodeAll(b)
	require.NoError(t, err)
	f, err := ParseFrame(vals[0])
	require.NoError(t, err)
	assert.Nil(t, f.Err)
	assert.Equal(t, 42.0, f.Result)
}

func TestMarshalStreamChunkAndEnd(t *testing.T) {
	b1, err := MarshalStreamChunk(RequestStreamChunk, 9, "hi")
	require.NoError(t, err)
	b2, err := MarshalStreamEnd(RequestStreamEnd, 9)
	require.NoError(t, err)

	vals, err := DecodeAll(append(b1, b2...))
	require.NoError(t, err)
	require.Len(t, vals, 2)

	f1, err := ParseFrame(vals[0])
	require.NoError(t, err)
	assert.Equal(t, RequestStreamChunk, f1.Kind)
	assert.Equal(t, "hi", f1.Value)

	f2, err := ParseFrame(vals[1])
	require.NoError(t, err)
	assert.Equal(t, RequestStreamEnd, f2.Kind)
	assert.Equal(t, uint32(9), f2.ID)
}

func TestMarshalCancel(t *testing.T) {
	b, err := MarshalCancel(4)
	require.NoError(t, err)
	vals, err := DecodeAll(b)
	require.NoError(t, err)
	f, err := ParseFrame(vals[0])
	require.NoError(t, err)
	assert.Equal(t, RequestCancel, f.Kind)
	assert.Equal(t, uint32(4), f.ID)
}

func TestHandshakeHelloRoundTrip(t *testing.T) {
	b, err := MarshalHello(HandshakeHello{Version: "1.0.0"})
	require.NoError(t, err)
	vals, err := DecodeAll(b)
	require.NoError(t, err)
	raw, ok := ToStringMap(vals[0])
	require.True(t, ok)
	hello, desc, herr, err := ParseHandshakeMessage(raw)
	require.NoError(t, err)
	require.NotNil(t, hello)
	assert.Nil(t, desc)
	assert.Nil(t, herr)
	assert.Equal(t, "1.0.0", hello.Version)
}

func TestHandshakeDescriptorRoundTrip(t *testing.T) {
	min, max := uint32(1), uint32(65535)
	b, err := MarshalDescriptor(HandshakeDescriptor{
		Version:      "1.0.0",
		MethodIDType: MethodIDStrNum,
		RPCInfo: []MethodDescriptor{
			{Signature: "div(a, b)", Doc: "divide", HasRequestStream: false, HasResponseStream: false},
			{Signature: "repeat(word, count)", Doc: "repeat", HasResponseStream: true},
		},
		MinMsgID: &min,
		MaxMsgID: &max,
	})
	require.NoError(t, err)

	vals, err := DecodeAll(b)
	require.NoError(t, err)
	raw, ok := ToStringMap(vals[0])
	require.True(t, ok)
	hello, desc, herr, err := ParseHandshakeMessage(raw)
	require.NoError(t, err)
	assert.Nil(t, hello)
	assert.Nil(t, herr)
	require.NotNil(t, desc)
	assert.Equal(t, "1.0.0", desc.Version)
	assert.Equal(t, MethodIDStrNum, desc.MethodIDType)
	require.Len(t, desc.RPCInfo, 2)
	assert.Equal(t, "div(a, b)", desc.RPCInfo[0].Signature)
	assert.True(t, desc.RPCInfo[1].HasResponseStream)
	require.NotNil(t, desc.MinMsgID)
	assert.Equal(t, uint32(1), *desc.MinMsgID)
}

func TestHandshakeErrorRoundTrip(t *testing.T) {
	b, err := MarshalHandshakeError(HandshakeError{Error: "Incompatible version, server: 2.0.0"})
	require.NoError(t, err)
	vals, err := DecodeAll(b)
	require.NoError(t, err)
	raw, ok := ToStringMap(vals[0])
	require.True(t, ok)
	hello, desc, herr, err := ParseHandshakeMessage(raw)
	require.NoError(t, err)
	assert.Nil(t, hello)
	assert.Nil(t, desc)
	require.NotNil(t, herr)
	assert.Contains(t, herr.Error, "Incompatible version")
}

func TestParseFrameRejectsUnknownKind(t *testing.T) {
	_, err := ParseFrame([]interface{}{int8(99), uint32(1)})
	assert.Error(t, err)
}

func TestParseFrameRejectsNonArray(t *testing.T) {
	_, err := ParseFrame("not a frame")
	assert.Error(t, err)
}
