package compresscache

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
)

var encoders = map[Algorithm]func([]byte) ([]byte, error){
	Gzip:   gzipEncode,
	Brotli: brotliEncode,
	Snappy: snappyEncode,
}

var decoders = map[Algorithm]func([]byte) ([]byte, error){
	Gzip:   gzipDecode,
	Brotli: brotliDecode,
	Snappy: snappyDecode,
}

func gzipEncode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gzipDecode(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close() //nolint:errcheck // read-only close
	return io.ReadAll(r)
}

func brotliEncode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func brotliDecode(data []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
}

func snappyEncode(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func snappyDecode(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}
