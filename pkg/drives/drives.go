// Package drives lists removable drives that can receive the installation media.
//
// Enumeration is not implemented: List always reports no drives. Callers
// treat an empty result as a normal outcome, not as an error.
package drives

// Drive describes a removable target device.
type Drive struct {
	ID    string // identifier stored as usb_drive in the selection record
	Label string
	Size  uint64 // bytes
}

// List returns the removable drives currently attached.
func List() ([]Drive, error) {
	return []Drive{}, nil
}
