package snapshot

import (
	"clanwatch/internal/snapshot/interfaces"
	"clanwatch/internal/structures"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

type ZstdCompression struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func (z *ZstdCompression) Compress(val []byte) ([]byte, error) {
	return z.encoder.EncodeAll(val, make([]byte, 0, len(val)/2)), nil
}

func (z *ZstdCompression) Decompress(val []byte) ([]byte, error) {
	return z.decoder.DecodeAll(val, nil)
}

func (z *ZstdCompression) Extension() string {
	return ".zst"
}

func (z *ZstdCompression) Close() {
	_ = z.encoder.Close()
	z.decoder.Close()
}

func NewZstdCompressor() (interfaces.CompressorInterface, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &ZstdCompression{encoder: encoder, decoder: decoder}, nil
}

// PlainCodec stores datasets as readable JSON, the layout the static
// dashboard and the git history expect.
type PlainCodec struct{}

func (PlainCodec) Compress(val []byte) ([]byte, error)   { return val, nil }
func (PlainCodec) Decompress(val []byte) ([]byte, error) { return val, nil }
func (PlainCodec) Extension() string                     { return "" }
func (PlainCodec) Close()                                {}

func NewCompressor(conf *structures.Config) (interfaces.CompressorInterface, error) {
	if conf.Persistence.Compress {
		return NewZstdCompressor()
	}
	return PlainCodec{}, nil
}
