// pkg/selection/selection.go - tracks the user's ISO, drive and software choices
// against the catalog and commits them as a selection record.

package selection

import (
	"fmt"

	"github.com/windowsadmins/autoinstaller/pkg/catalog"
	"github.com/windowsadmins/autoinstaller/pkg/logging"
	"github.com/windowsadmins/autoinstaller/pkg/record"
)

// State is the commit state of a session.
type State int

const (
	// Unvalidated is the initial state and the state after any change.
	Unvalidated State = iota
	// Committed means the current choices were validated and written.
	Committed
)

func (s State) String() string {
	switch s {
	case Unvalidated:
		return "unvalidated"
	case Committed:
		return "committed"
	default:
		return "unknown"
	}
}

// Sink persists committed records. record.FileSink is the production sink.
type Sink interface {
	Write(rec record.SelectionRecord) error
}

// Manager owns the selection state of one session. It is not safe for
// concurrent use; callers drive it from a single goroutine.
type Manager struct {
	catalog  *catalog.Catalog
	sink     Sink
	isoPath  string
	driveID  string
	selected map[catalog.Key]bool
	state    State
}

// New creates a manager tracking every entry of cat, all deselected.
func New(cat *catalog.Catalog, sink Sink) *Manager {
	m := &Manager{
		catalog:  cat,
		sink:     sink,
		selected: make(map[catalog.Key]bool, cat.Len()),
	}
	for _, key := range cat.Keys() {
		m.selected[key] = false
	}
	return m
}

// Catalog returns the catalog the session was created with.
func (m *Manager) Catalog() *catalog.Catalog { return m.catalog }

// State returns the current commit state.
func (m *Manager) State() State { return m.state }

// ISOPath returns the stored image path.
func (m *Manager) ISOPath() string { return m.isoPath }

// Drive returns the stored drive identifier.
func (m *Manager) Drive() string { return m.driveID }

// SetISOPath stores path verbatim. The file is not checked.
func (m *Manager) SetISOPath(path string) {
	m.isoPath = path
	m.state = Unvalidated
}

// SetDrive stores the drive identifier verbatim.
func (m *Manager) SetDrive(id string) {
	m.driveID = id
	m.state = Unvalidated
}

// Toggle sets the selected flag of one catalog entry.
func (m *Manager) Toggle(categoryID, softwareID string, selected bool) error {
	key := catalog.Key{Category: categoryID, Software: softwareID}
	if _, ok := m.selected[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntry, key)
	}
	m.selected[key] = selected
	m.state = Unvalidated
	logging.Debug("Toggled catalog entry", "entry", key.String(), "selected", selected)
	return nil
}

// IsSelected reports the flag of one catalog entry.
func (m *Manager) IsSelected(categoryID, softwareID string) (bool, error) {
	key := catalog.Key{Category: categoryID, Software: softwareID}
	selected, ok := m.selected[key]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownEntry, key)
	}
	return selected, nil
}

// SelectAll marks every catalog entry as selected.
func (m *Manager) SelectAll() { m.setAll(true) }

// DeselectAll clears every selection.
func (m *Manager) DeselectAll() { m.setAll(false) }

func (m *Manager) setAll(selected bool) {
	for key := range m.selected {
		m.selected[key] = selected
	}
	m.state = Unvalidated
	logging.Debug("Set every catalog entry", "selected", selected, "entries", len(m.selected))
}

// SelectedEntries returns the selected entries in catalog order.
func (m *Manager) SelectedEntries() []catalog.Entry {
	var entries []catalog.Entry
	for _, key := range m.catalog.Keys() {
		if !m.selected[key] {
			continue
		}
		if e, ok := m.catalog.Lookup(key); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// Commit validates the current choices and writes them through the sink.
// It fails with ErrMissingISO before any write when no image is set, and with
// a *PersistenceError when the sink fails.
func (m *Manager) Commit() (record.SelectionRecord, error) {
	m.state = Unvalidated

	if m.isoPath == "" {
		logging.Warn("Commit rejected, no ISO selected")
		return record.SelectionRecord{}, ErrMissingISO
	}

	entries := m.SelectedEntries()
	rec := record.Build(m.isoPath, m.driveID, entries)
	logging.Debug("Writing selection record", "software", len(rec.Software))

	if err := m.sink.Write(rec); err != nil {
		logging.Error("Failed to save selection record", "error", err)
		return record.SelectionRecord{}, &PersistenceError{Err: err}
	}

	m.state = Committed
	logging.Info("Selection committed",
		"iso", m.isoPath,
		"drive", m.driveID,
		"software", len(rec.Software))
	return rec, nil
}
