// pkg/record/record.go - the persisted selection record read by the provisioning step.

package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/windowsadmins/autoinstaller/pkg/catalog"
	"github.com/windowsadmins/autoinstaller/pkg/logging"
)

// recordMode is applied to a record file the first time it is created so the
// provisioning step can read it under another account. An existing file
// keeps its mode across replacements.
const recordMode = 0644

// Software is one selected package as written to the record.
type Software struct {
	Name    string `json:"name"`
	Command string `json:"command"`
}

// SelectionRecord is the on-disk projection of a committed selection.
// Field order here is the field order on disk.
type SelectionRecord struct {
	ISOPath  string     `json:"iso_path"`
	USBDrive string     `json:"usb_drive"`
	Software []Software `json:"software"`
}

// Build projects a selection onto the record schema. Software is never nil
// so an empty selection is written as [].
func Build(isoPath, drive string, entries []catalog.Entry) SelectionRecord {
	rec := SelectionRecord{
		ISOPath:  isoPath,
		USBDrive: drive,
		Software: make([]Software, 0, len(entries)),
	}
	for _, e := range entries {
		rec.Software = append(rec.Software, Software{Name: e.DisplayName, Command: e.InstallCommand})
	}
	return rec
}

// Encode renders rec as indented JSON. Non-ASCII text and characters such as
// '<' or '&' are written as-is. The output is deterministic.
func Encode(rec SelectionRecord) ([]byte, error) {
	if rec.Software == nil {
		rec.Software = []Software{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("failed to encode selection record: %w", err)
	}
	return buf.Bytes(), nil
}

// Read parses a record previously written by FileSink.
func Read(path string) (SelectionRecord, error) {
	var rec SelectionRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("failed to read selection record: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to parse selection record %s: %w", path, err)
	}
	return rec, nil
}

// FileSink writes records to Path, replacing any previous record in a single
// rename so readers never observe a partial file. A failed write leaves the
// previous record untouched.
//
// Failures while creating the parent directory wrap the underlying
// *fs.PathError. Failures inside the replace itself only carry the cause as
// text, so errors.Is cannot match fs.ErrPermission and the like on them.
type FileSink struct {
	Path string
}

// Write encodes rec and atomically replaces the file at s.Path.
func (s FileSink) Write(rec SelectionRecord) error {
	if s.Path == "" {
		return fmt.Errorf("no selection record path configured")
	}

	data, err := Encode(rec)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	_, statErr := os.Stat(s.Path)
	created := errors.Is(statErr, fs.ErrNotExist)

	if err := atomic.WriteFile(s.Path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write selection record %s: %w", s.Path, err)
	}
	if created {
		if err := os.Chmod(s.Path, recordMode); err != nil {
			return fmt.Errorf("failed to set mode on selection record %s: %w", s.Path, err)
		}
	}

	logging.Debug("Selection record written", "path", s.Path, "bytes", len(data), "created", created)
	return nil
}
