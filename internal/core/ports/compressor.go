package ports

// Compressor compresses resource payloads.
//
//go:generate mockgen -destination=mocks/compressor_mock.go -package=mocks -source=compressor.go
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}
