package despierta

// Store persists the full alarm collection. It is the sole reader and writer
// of the on-disk representation.
//
// Load returns the stored alarms in display order. A missing backing file is
// not an error: Load returns an empty collection. An unreadable or
// unparseable backing file fails with code ErrCorrupt so the caller can fall
// back to an empty list instead of crashing.
//
// Save rewrites the whole collection, replacing whatever was stored before.
// It fails with code ErrWrite when the backing location can't be written;
// callers keep their in-memory state and surface the error to the user.
type Store interface {
	Load() ([]Alarm, error)
	Save(alarms []Alarm) error
}
