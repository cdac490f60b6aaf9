package wsmprpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyansuper/wsmprpc/rpcqueue"
)

func unaryNoop(ctx context.Context, args []interface{}, kwargs map[string]interface{}, _ *rpcqueue.Queue) (interface{}, error) {
	return nil, nil
}

func streamNoop(ctx context.Context, args []interface{}, kwargs map[string]interface{}, _ *rpcqueue.Queue, send func(interface{}) error) error {
	return nil
}

func TestMethodDescValidate(t *testing.T) {
	assert.Error(t, MethodDesc{}.validate())
	assert.NoError(t, MethodDesc{Name: "div", Unary: unaryNoop}.validate())
	assert.Error(t, MethodDesc{Name: "div"}.validate()) // no handler
	assert.Error(t, MethodDesc{Name: "div", Unary: unaryNoop, Stream: streamNoop}.validate())
	assert.Error(t, MethodDesc{Name: "repeat", HasResponseStream: true, Unary: unaryNoop}.validate())
	assert.NoError(t, MethodDesc{Name: "repeat", HasResponseStream: true, Stream: streamNoop}.validate())
}

func TestMethodDescDefaultSignature(t *testing.T) {
	d := MethodDesc{Name: "div", Unary: unaryNoop}
	assert.Equal(t, "div(...)", d.descriptor().Signature)
}

func TestRegistryOrderingAndLookup(t *testing.T) {
	r := newMethodRegistry()
	require.NoError(t, r.register(MethodDesc{Name: "div", Unary: unaryNoop}))
	require.NoError(t, r.register(MethodDesc{Name: "repeat", HasResponseStream: true, Stream: streamNoop}))

	assert.Equal(t, []string{"div", "repeat"}, r.names())

	d, ok := r.resolve("div")
	require.True(t, ok)
	assert.Equal(t, "div", d.Name)

	d, ok = r.resolve(int64(1))
	require.True(t, ok)
	assert.Equal(t, "repeat", d.Name)

	_, ok = r.resolve("missing")
	assert.False(t, ok)

	catalog := r.catalog()
	require.Len(t, catalog, 2)
	assert.True(t, catalog[1].HasResponseStream)
}

func TestRegistryUnregisterPreservesOrder(t *testing.T) {
	r := newMethodRegistry()
	require.NoError(t, r.register(MethodDesc{Name: "a", Unary: unaryNoop}))
	require.NoError(t, r.register(MethodDesc{Name: "b", Unary: unaryNoop}))
	require.NoError(t, r.register(MethodDesc{Name: "c", Unary: unaryNoop}))
	r.unregister("b")
	assert.Equal(t, []string{"a", "c"}, r.names())
}
