package storage

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

var (
	blobEncoder *zstd.Encoder
	blobDecoder *zstd.Decoder
)

func init() {
	var err error
	blobEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(fmt.Sprintf("storage: zstd encoder: %v", err))
	}
	blobDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("storage: zstd decoder: %v", err))
	}
}

// encodeBlob marshals v to JSON and compresses it.
func encodeBlob(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return blobEncoder.EncodeAll(data, nil), nil
}

// decodeBlob decompresses a payload and unmarshals it into v.
func decodeBlob(blob []byte, v interface{}) error {
	data, err := blobDecoder.DecodeAll(blob, nil)
	if err != nil {
		return fmt.Errorf("failed to decompress payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}
