package cache

// Tier is a persistent cache tier behind the in-process fast tier.
// Get returns core.ErrNotFound for a missing key and ErrCorruptEntry for a
// key whose stored bytes cannot be decoded.
type Tier interface {
	Get(key string) (*Entry, error)
	Set(e *Entry) error
	Delete(key string) error
	Keys() ([]string, error)
	Clear() error
	Close() error
}
