package interfaces

type CompressorInterface interface {
	Compress(val []byte) ([]byte, error)
	Decompress(val []byte) ([]byte, error)
	// Extension is appended to the dataset file name, empty for plain JSON.
	Extension() string
	Close()
}
