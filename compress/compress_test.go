package compress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlateRoundTrip(t *testing.T) {
	c := Get("flate")
	require.NotNil(t, c)
	assert.Equal(t, "flate", c.Name())

	orig := []byte("the quick brown fox jumps over the lazy dog, repeatedly, to give flate something to compress")
	compressed, err := c.Compress(orig)
	require.NoError(t, err)

	out, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, orig, out)
}

func TestFlateRoundTripEmpty(t *testing.T) {
	c := Get("flate")
	require.NotNil(t, c)

	compressed, err := c.Compress(nil)
	require.NoError(t, err)
	out, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGetUnknownReturnsNil(t *testing.T) {
	assert.Nil(t, Get("snappy"))
}

func TestRegisterOverridesByName(t *testing.T) {
	defer func() { Register(flateCompressor{}) }() // restore default

	Register(stubCompressor{name: "flate"})
	assert.Equal(t, "flate", Get("flate").Name())
	_, err := Get("flate").Compress(nil)
	assert.Equal(t, errStub, err)
}

var errStub = ErrUnknown("stub")

type stubCompressor struct{ name string }

func (s stubCompressor) Name() string                         { return s.name }
func (s stubCompressor) Compress(p []byte) ([]byte, error)    { return nil, errStub }
func (s stubCompressor) Decompress(p []byte) ([]byte, error)  { return nil, errStub }

func TestErrUnknownMentionsName(t *testing.T) {
	err := ErrUnknown("zstd")
	assert.Contains(t, err.Error(), "zstd")
}
