package may

import (
	"bytes"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes stored values to blobs and back. Marshal must accept
// arbitrary Go values without prior registration; Unmarshal decodes
// into the pointed-to value, which may be a *any for a generic decode.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// defaultCodec is shared by all Stores that do not supply their own.
var defaultCodec = NewMsgpackCodec()

// MsgpackCodec encodes values as MessagePack. Encoder and decoder state
// is pooled, one instance per in-flight operation, so concurrent
// operations never share mutable codec state.
type MsgpackCodec struct {
	encoders sync.Pool
	decoders sync.Pool
}

var _ Codec = (*MsgpackCodec)(nil)

type msgpackEncoderState struct {
	buf bytes.Buffer
	enc *msgpack.Encoder
}

type msgpackDecoderState struct {
	r   bytes.Reader
	dec *msgpack.Decoder
}

// NewMsgpackCodec returns a ready MsgpackCodec.
func NewMsgpackCodec() *MsgpackCodec {
	c := &MsgpackCodec{}
	c.encoders.New = func() any {
		s := &msgpackEncoderState{}
		s.enc = msgpack.NewEncoder(&s.buf)
		return s
	}
	c.decoders.New = func() any {
		s := &msgpackDecoderState{}
		s.dec = msgpack.NewDecoder(&s.r)
		return s
	}
	return c
}

// Marshal implements [Codec].
func (c *MsgpackCodec) Marshal(v any) ([]byte, error) {
	s := c.encoders.Get().(*msgpackEncoderState)
	defer c.encoders.Put(s)

	s.buf.Reset()
	s.enc.Reset(&s.buf)
	if err := s.enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.Clone(s.buf.Bytes()), nil
}

// Unmarshal implements [Codec].
func (c *MsgpackCodec) Unmarshal(data []byte, v any) error {
	s := c.decoders.Get().(*msgpackDecoderState)
	defer c.decoders.Put(s)

	s.r.Reset(data)
	s.dec.Reset(&s.r)
	return s.dec.Decode(v)
}
