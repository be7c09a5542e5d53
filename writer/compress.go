package writer

import (
	"bytes"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/pool"
)

// Compressor turns a flushed buffer into the bytes that are uploaded.
type Compressor struct {
	// Name identifies the strategy in logs
	Name string

	// Suffix is appended to object names after the extension, e.g. "gz"
	Suffix string

	// ContentEncoding is the HTTP Content-Encoding of the output, if any
	ContentEncoding string

	// Compress must not retain data after returning
	Compress func(data []byte) ([]byte, error)
}

// Compressed reports whether the strategy changes the bytes it is given.
func (c Compressor) Compressed() bool {
	return c.Suffix != ""
}

var (
	// NoCompression uploads the buffer as is.
	NoCompression = Compressor{
		Name:     "none",
		Compress: func(data []byte) ([]byte, error) { return data, nil },
	}

	// Gzip compresses each object with gzip at the default level.
	Gzip = Compressor{
		Name:            "gzip",
		Suffix:          "gz",
		ContentEncoding: "gzip",
		Compress:        gzipCompress,
	}

	// Zstd compresses each object with zstandard at the default level.
	Zstd = Compressor{
		Name:            "zstd",
		Suffix:          "zst",
		ContentEncoding: "zstd",
		Compress:        zstdCompress,
	}
)

func gzipCompress(data []byte) ([]byte, error) {
	buf := pool.Get()
	defer pool.Put(buf)

	zw := gzip.NewWriter(buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}

// EncodeAll is safe for concurrent use, so one encoder serves every writer.
var zstdEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
	return zstd.NewWriter(nil)
})

func zstdCompress(data []byte) ([]byte, error) {
	enc, err := zstdEncoder()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}
