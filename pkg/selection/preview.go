package selection

import (
	"fmt"
	"strings"
)

// Preview is a read-only summary of the current choices.
type Preview struct {
	ISOPath  string
	Drive    string
	Software []string // display names in catalog order
}

// Preview summarizes the session without validating or writing anything.
func (m *Manager) Preview() Preview {
	p := Preview{ISOPath: m.isoPath, Drive: m.driveID}
	for _, e := range m.SelectedEntries() {
		p.Software = append(p.Software, e.DisplayName)
	}
	return p
}

func (p Preview) String() string {
	var b strings.Builder

	fmt.Fprintln(&b, "SELECTED CONFIGURATION")
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "ISO: %s\n", orNotSelected(p.ISOPath))
	fmt.Fprintf(&b, "USB: %s\n", orNotSelected(p.Drive))
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "SOFTWARE TO INSTALL (%d):\n", len(p.Software))

	if len(p.Software) == 0 {
		fmt.Fprintln(&b, "  No software selected")
	}
	for _, name := range p.Software {
		fmt.Fprintf(&b, "  - %s\n", name)
	}

	return b.String()
}

func orNotSelected(s string) string {
	if s == "" {
		return "Not selected"
	}
	return s
}
