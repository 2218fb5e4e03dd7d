package domain

// ChangeEvent reports that the persisted entry for Key changed in some
// other context.
type ChangeEvent struct {
	// Key is the storage key that changed.
	Key string

	// NewValue is the new persisted text. It is meaningless when Removed is set.
	NewValue []byte

	// Removed is true when the entry no longer exists.
	Removed bool
}

// Resource returns the valid resource carried by the event, or nil.
func (e ChangeEvent) Resource() Resource {
	if e.Removed {
		return nil
	}
	return ParseSnapshot(e.NewValue)
}
