package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// parseJSON walks a JSON catalog token by token so that object key order
// survives decoding.
func parseJSON(data []byte) ([]sourceCategory, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("catalog root must be an object: %w", err)
	}

	var categories []sourceCategory
	for dec.More() {
		at := fmt.Sprintf("offset %d", dec.InputOffset())
		catID, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		if err := expectDelim(dec, '{'); err != nil {
			return nil, fmt.Errorf("category %q must be an object: %w", catID, err)
		}

		cat := sourceCategory{id: catID, at: at}
		for dec.More() {
			swID, err := readKey(dec)
			if err != nil {
				return nil, err
			}
			entry := sourceEntry{id: swID, at: fmt.Sprintf("offset %d", dec.InputOffset())}

			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, fmt.Errorf("failed to parse catalog: %w", err)
			}
			entry.err = decodeJSONEntry(raw, &entry.fields)
			cat.entries = append(cat.entries, entry)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, fmt.Errorf("failed to parse catalog: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("failed to parse catalog: unexpected data after the root object")
	}
	return categories, nil
}

func decodeJSONEntry(raw json.RawMessage, fields *entryFields) error {
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New("entry is not a mapping")
	}
	return json.Unmarshal(raw, fields)
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, found %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("failed to parse catalog: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("failed to parse catalog: expected an object key, found %v", tok)
	}
	return key, nil
}
