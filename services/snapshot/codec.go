package snapshot

import (
	"encoding/json"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// ContractVersion tags every serialized contract blob. A blob carrying any
// other version is treated like an absent one, forcing a rebuild.
const ContractVersion = 1

// Codec turns contract values into compressed blobs and back. Encode returns
// the uncompressed size alongside the blob; Decode wants it back as a buffer
// hint.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func NewCodec() *Codec {
	// Static options, construction cannot fail.
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		panic(err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}
	return &Codec{enc: enc, dec: dec}
}

func (c *Codec) Encode(v any) ([]byte, int, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to marshal contract")
	}
	return c.enc.EncodeAll(raw, nil), len(raw), nil
}

func (c *Codec) Decode(data []byte, size int, v any) error {
	raw, err := c.dec.DecodeAll(data, make([]byte, 0, size))
	if err != nil {
		return errors.Wrap(err, "failed to decompress contract")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrap(err, "failed to unmarshal contract")
	}
	return nil
}
