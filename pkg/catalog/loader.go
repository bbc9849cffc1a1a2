// pkg/catalog/loader.go - reads the catalog source, falling back to Default.

package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/windowsadmins/autoinstaller/pkg/logging"
	"gopkg.in/yaml.v3"
)

// errSourceUnavailable marks a catalog source that is missing or unreadable.
// Load always recovers from it.
var errSourceUnavailable = errors.New("catalog source unavailable")

var utf8BOM = []byte("\xef\xbb\xbf")

// Load reads the catalog at source. It never fails: when the source is
// missing, unreadable or rejected by Parse the built-in Default catalog is
// returned instead.
func Load(source string) *Catalog {
	data, err := readSource(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || source == "" {
			logging.Info("Catalog source not found, using default catalog", "path", source)
		} else {
			logging.Warn("Catalog source unreadable, using default catalog", "path", source, "error", err)
		}
		return Default()
	}

	cat, err := Parse(data)
	if err != nil {
		logging.Warn("Catalog source rejected, using default catalog", "path", source, "error", err)
		return Default()
	}

	logging.Info("Loaded catalog", "path", source, "categories", len(cat.categories), "entries", cat.Len())
	return cat
}

func readSource(source string) ([]byte, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: no path configured", errSourceUnavailable)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errSourceUnavailable, err)
	}
	return data, nil
}

// entryFields mirrors one software entry in the catalog source.
type entryFields struct {
	DisplayName    *string `yaml:"display_name" json:"display_name"`
	InstallCommand *string `yaml:"install_command" json:"install_command"`
	Description    *string `yaml:"description" json:"description"`
}

// sourceEntry is one software entry as it appeared in the document, before
// the skip rules are applied. err is set when the value could not be decoded.
type sourceEntry struct {
	id     string
	at     string
	fields entryFields
	err    error
}

type sourceCategory struct {
	id      string
	at      string
	entries []sourceEntry
}

// Parse decodes a catalog document of the form
//
//	category_id:
//	  software_id: {display_name, install_command, description}
//
// A document whose first non-blank character is '{' or '[' is read as JSON,
// anything else as YAML. Mapping order is preserved in both cases.
//
// A document that is not a mapping of mappings is rejected as a whole.
// Individual entries that are not mappings, or lack display_name or
// install_command, are skipped; so are repeated ids (the first one wins).
// Categories left empty are dropped, and a catalog left empty is an error.
func Parse(data []byte) (*Catalog, error) {
	var (
		source []sourceCategory
		err    error
	)
	if body, ok := jsonDocument(data); ok {
		logging.Debug("Parsing catalog", "format", "json", "bytes", len(data))
		source, err = parseJSON(body)
	} else {
		logging.Debug("Parsing catalog", "format", "yaml", "bytes", len(data))
		source, err = parseYAML(data)
	}
	if err != nil {
		return nil, err
	}
	return buildCatalog(source)
}

// jsonDocument reports whether data holds a JSON document and returns it
// without a leading byte order mark.
func jsonDocument(data []byte) ([]byte, bool) {
	body := bytes.TrimPrefix(data, utf8BOM)
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, false
	}
	return body, trimmed[0] == '{' || trimmed[0] == '['
}

func parseYAML(data []byte) ([]sourceCategory, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("catalog document is empty")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("catalog root must be a mapping (line %d)", root.Line)
	}

	var categories []sourceCategory
	for i := 0; i+1 < len(root.Content); i += 2 {
		catID, body := root.Content[i].Value, root.Content[i+1]
		if body.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("category %q must be a mapping (line %d)", catID, body.Line)
		}

		cat := sourceCategory{id: catID, at: fmt.Sprintf("line %d", root.Content[i].Line)}
		for j := 0; j+1 < len(body.Content); j += 2 {
			node := body.Content[j+1]
			entry := sourceEntry{id: body.Content[j].Value, at: fmt.Sprintf("line %d", node.Line)}
			if node.Kind != yaml.MappingNode {
				entry.err = errors.New("entry is not a mapping")
			} else {
				entry.err = node.Decode(&entry.fields)
			}
			cat.entries = append(cat.entries, entry)
		}
		categories = append(categories, cat)
	}
	return categories, nil
}

// buildCatalog applies the skip rules to a decoded document.
func buildCatalog(source []sourceCategory) (*Catalog, error) {
	var categories []Category
	seenCategory := make(map[string]bool)

	for _, sc := range source {
		if sc.id == "" {
			logging.Warn("Skipping catalog category with empty id", "at", sc.at)
			continue
		}
		if seenCategory[sc.id] {
			logging.Warn("Skipping duplicate catalog category", "category", sc.id, "at", sc.at)
			continue
		}
		seenCategory[sc.id] = true

		cat := Category{ID: sc.id}
		seenEntry := make(map[string]bool)

		for _, se := range sc.entries {
			key := Key{Category: sc.id, Software: se.id}

			entry, err := toEntry(se)
			if err != nil {
				logging.Warn("Skipping catalog entry", "entry", key.String(), "at", se.at, "reason", err)
				continue
			}
			if seenEntry[se.id] {
				logging.Warn("Skipping duplicate catalog entry", "entry", key.String(), "at", se.at)
				continue
			}
			seenEntry[se.id] = true
			cat.Entries = append(cat.Entries, entry)
			logging.Debug("Catalog entry accepted", "entry", key.String(), "name", entry.DisplayName)
		}

		if len(cat.Entries) == 0 {
			logging.Warn("Dropping catalog category without usable entries", "category", sc.id)
			continue
		}
		categories = append(categories, cat)
	}

	if len(categories) == 0 {
		return nil, errors.New("catalog has no usable entries")
	}

	return New(categories)
}

func toEntry(se sourceEntry) (Entry, error) {
	switch {
	case se.id == "":
		return Entry{}, errors.New("empty software id")
	case se.err != nil:
		return Entry{}, se.err
	case se.fields.DisplayName == nil || *se.fields.DisplayName == "":
		return Entry{}, errors.New("missing display_name")
	case se.fields.InstallCommand == nil || *se.fields.InstallCommand == "":
		return Entry{}, errors.New("missing install_command")
	}

	entry := Entry{
		ID:             se.id,
		DisplayName:    *se.fields.DisplayName,
		InstallCommand: *se.fields.InstallCommand,
	}
	if se.fields.Description != nil {
		entry.Description = *se.fields.Description
	}
	return entry, nil
}
