// pkg/catalog/catalog.go - the software catalog offered to the user.

package catalog

import (
	"fmt"
	"strings"
)

// Entry is one installable item of the catalog.
type Entry struct {
	ID             string
	DisplayName    string
	InstallCommand string
	Description    string
}

// Category is a named, ordered group of entries.
type Category struct {
	ID      string
	Entries []Entry
}

// Label returns the heading shown for the category, e.g. "DEV TOOLS" for "dev_tools".
func (c Category) Label() string {
	return strings.ToUpper(strings.ReplaceAll(c.ID, "_", " "))
}

// Key identifies an entry across the whole catalog.
type Key struct {
	Category string
	Software string
}

func (k Key) String() string {
	return k.Category + "/" + k.Software
}

// ParseKey parses the "category/software" form produced by Key.String.
// Only the first slash separates the two parts.
func ParseKey(s string) (Key, error) {
	category, software, ok := strings.Cut(s, "/")
	if !ok || category == "" || software == "" {
		return Key{}, fmt.Errorf("invalid catalog key %q, expected category/software", s)
	}
	return Key{Category: category, Software: software}, nil
}

// Catalog is the immutable set of categories loaded at startup.
// Enumeration always follows the order of the catalog source.
type Catalog struct {
	categories []Category
	keys       []Key
	index      map[Key]Entry
}

// New builds a catalog from categories in the given order. It rejects empty
// ids, duplicate ids and entries without a display name or install command.
func New(categories []Category) (*Catalog, error) {
	c := &Catalog{index: make(map[Key]Entry)}
	seen := make(map[string]bool, len(categories))

	for _, cat := range categories {
		if cat.ID == "" {
			return nil, fmt.Errorf("category with empty id")
		}
		if seen[cat.ID] {
			return nil, fmt.Errorf("duplicate category %q", cat.ID)
		}
		seen[cat.ID] = true

		entries := make([]Entry, 0, len(cat.Entries))
		for _, e := range cat.Entries {
			key := Key{Category: cat.ID, Software: e.ID}
			switch {
			case e.ID == "":
				return nil, fmt.Errorf("entry with empty id in category %q", cat.ID)
			case e.DisplayName == "":
				return nil, fmt.Errorf("entry %s has no display_name", key)
			case e.InstallCommand == "":
				return nil, fmt.Errorf("entry %s has no install_command", key)
			}
			if _, dup := c.index[key]; dup {
				return nil, fmt.Errorf("duplicate entry %s", key)
			}
			c.index[key] = e
			c.keys = append(c.keys, key)
			entries = append(entries, e)
		}
		c.categories = append(c.categories, Category{ID: cat.ID, Entries: entries})
	}

	return c, nil
}

// Categories returns a copy of the categories in catalog order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = Category{ID: cat.ID, Entries: append([]Entry(nil), cat.Entries...)}
	}
	return out
}

// Keys returns every entry key in catalog order.
func (c *Catalog) Keys() []Key {
	return append([]Key(nil), c.keys...)
}

// Lookup returns the entry stored under key.
func (c *Catalog) Lookup(key Key) (Entry, bool) {
	e, ok := c.index[key]
	return e, ok
}

// Len returns the number of entries across all categories.
func (c *Catalog) Len() int {
	return len(c.keys)
}

// Default returns the built-in catalog used when no catalog source is available.
func Default() *Catalog {
	c, err := New([]Category{
		{
			ID: "browsers",
			Entries: []Entry{
				{
					ID:             "chrome",
					DisplayName:    "Google Chrome",
					InstallCommand: "winget install -e --id Google.Chrome",
					Description:    "Fast, secure web browser",
				},
				{
					ID:             "firefox",
					DisplayName:    "Mozilla Firefox",
					InstallCommand: "winget install -e --id Mozilla.Firefox",
					Description:    "Open source web browser",
				},
			},
		},
		{
			ID: "utilities",
			Entries: []Entry{
				{
					ID:             "7zip",
					DisplayName:    "7-Zip",
					InstallCommand: "winget install -e --id 7zip.7zip",
					Description:    "Free file archiver",
				},
				{
					ID:             "vlc",
					DisplayName:    "VLC Media Player",
					InstallCommand: "winget install -e --id VideoLAN.VLC",
					Description:    "Universal media player",
				},
			},
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}
