// Package compress defines a pluggable whole-message compressor and a
// name-keyed registry for it, adapted from the teacher's encoding package
// (grpc-go's per-stream Compressor interface and RegisterCompressor/
// GetCompressor pair). The teacher's variant is io.Writer/io.Reader based,
// suited to a long-lived HTTP/2 stream; this one operates on whole byte
// slices because every wire.Transport.Recv/Send already deals in
// complete messages (spec §6), never a byte stream to chunk.
//
// compress包实现了可插拔的整消息压缩器及其按名字索引的注册表，改写自教师代码
// encoding包中基于io.Writer/io.Reader的Compressor接口。这里改为整条字节数组，
// 因为Transport.Recv/Send本身传递的就是完整消息（参见协议文档第6节），从不是
// 需要分块处理的字节流。
package compress

import "fmt"

// Compressor compresses and decompresses one whole wire message. Unlike
// the teacher's stream-oriented Compressor, there is no partial/ incremental
// mode: wsmprpc never sees a message before it is complete.
type Compressor interface {
	Compress(p []byte) ([]byte, error)
	Decompress(p []byte) ([]byte, error)
	// Name identifies the compressor in the registry. It is not carried on
	// the wire: wstransport.Conn.WithCompression requires both peers to
	// agree on one out of band, since the protocol has no in-band
	// negotiation for it (unlike the handshake itself, spec §4.6).
	Name() string
}

var registered = make(map[string]Compressor)

// Register adds c to the registry by its Name(). Call during
// initialization, e.g. from an init() func; not safe for concurrent use
// with Get.
func Register(c Compressor) {
	registered[c.Name()] = c
}

// Get returns the Compressor registered under name, or nil.
func Get(name string) Compressor {
	return registered[name]
}

func init() {
	Register(flateCompressor{})
}

// ErrUnknown builds the error for a compressor name that is not registered.
// wstransport does not use it: Conn.WithCompression with an unregistered
// name leaves compression disabled.
func ErrUnknown(name string) error {
	return fmt.Errorf("compress: unknown compressor %q", name)
}
