package ports

// Hasher defines the interface for computing content hashes.
//
//go:generate mockgen -destination=mocks/hasher_mock.go -package=mocks -source=hasher.go
type Hasher interface {
	// Hash returns the hex hash of data.
	Hash(data []byte) string
	// HashFile returns the hex hash of the file at path.
	HashFile(path string) (string, error)
}
