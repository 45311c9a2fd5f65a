package shared

// Tracker marks an entity as changed since it was last written to the store.
// Embed it in every persisted entity.
type Tracker struct {
	dirty bool
}

// Touch flags the entity for the next flush.
func (t *Tracker) Touch() { t.dirty = true }

// Dirty reports whether the entity has unsaved changes.
func (t *Tracker) Dirty() bool { return t.dirty }

// Clean is called after the entity was saved successfully.
func (t *Tracker) Clean() { t.dirty = false }
