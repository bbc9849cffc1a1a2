package record

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/windowsadmins/autoinstaller/pkg/catalog"
)

func TestBuild(t *testing.T) {
	entries := []catalog.Entry{
		{ID: "vlc", DisplayName: "VLC Media Player", InstallCommand: "winget install -e --id VideoLAN.VLC"},
		{ID: "7zip", DisplayName: "7-Zip", InstallCommand: "winget install -e --id 7zip.7zip"},
	}

	rec := Build(`D:\win11.iso`, "E:", entries)

	want := SelectionRecord{
		ISOPath:  `D:\win11.iso`,
		USBDrive: "E:",
		Software: []Software{
			{Name: "VLC Media Player", Command: "winget install -e --id VideoLAN.VLC"},
			{Name: "7-Zip", Command: "winget install -e --id 7zip.7zip"},
		},
	}
	if !reflect.DeepEqual(rec, want) {
		t.Errorf("Build = %+v, want %+v", rec, want)
	}
}

func TestEncodeLayout(t *testing.T) {
	rec := Build(`D:\win11.iso`, "", []catalog.Entry{
		{ID: "chrome", DisplayName: "Google Chrome", InstallCommand: "winget install -e --id Google.Chrome"},
	})

	data, err := Encode(rec)
	if err != nil {
		t.Fatal(err)
	}

	want := `{
  "iso_path": "D:\\win11.iso",
  "usb_drive": "",
  "software": [
    {
      "name": "Google Chrome",
      "command": "winget install -e --id Google.Chrome"
    }
  ]
}
`
	if string(data) != want {
		t.Errorf("Encode output mismatch:\ngot:\n%s\nwant:\n%s", data, want)
	}
}

func TestEncodeEmptySoftwareIsArray(t *testing.T) {
	for _, rec := range []SelectionRecord{{ISOPath: "x.iso"}, Build("x.iso", "", nil)} {
		data, err := Encode(rec)
		if err != nil {
			t.Fatal(err)
		}
		var generic map[string]interface{}
		if err := json.Unmarshal(data, &generic); err != nil {
			t.Fatal(err)
		}
		list, ok := generic["software"].([]interface{})
		if !ok || len(list) != 0 {
			t.Errorf("software should be an empty array, got %#v", generic["software"])
		}
	}
}

func TestEncodeKeepsTextVerbatim(t *testing.T) {
	rec := Build(`C:\Immagini\Windows 11 €.iso`, "", []catalog.Entry{
		{ID: "x", DisplayName: "Lettore <multimediale> & più", InstallCommand: "a && b"},
	})
	data, err := Encode(rec)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"€", "<multimediale> & più", "a && b"} {
		if !json.Valid(data) || !strings.Contains(string(data), s) {
			t.Errorf("Expected %q verbatim in %s", s, data)
		}
	}
}

func TestFileSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "user_selection.json")
	sink := FileSink{Path: path}

	rec := Build(`D:\win11.iso`, "E:", []catalog.Entry{
		{ID: "chrome", DisplayName: "Google Chrome", InstallCommand: "winget install -e --id Google.Chrome"},
		{ID: "vlc", DisplayName: "VLC Media Player", InstallCommand: "winget install -e --id VideoLAN.VLC"},
	})
	if err := sink.Write(rec); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("Round trip mismatch: got %+v, want %+v", got, rec)
	}
}

func TestFileSinkReplacesPriorRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_selection.json")
	sink := FileSink{Path: path}

	first := Build("first.iso", "", []catalog.Entry{
		{ID: "a", DisplayName: "A", InstallCommand: "install a"},
		{ID: "b", DisplayName: "B", InstallCommand: "install b"},
	})
	second := Build("second.iso", "", nil)

	if err := sink.Write(first); err != nil {
		t.Fatal(err)
	}
	if err := sink.Write(second); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := Encode(second)
	if string(data) != string(want) {
		t.Errorf("Record should be fully replaced, got:\n%s", data)
	}
}

func TestFileSinkFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	sink := FileSink{Path: filepath.Join(blocker, "user_selection.json")}
	if err := sink.Write(Build("x.iso", "", nil)); err == nil {
		t.Error("Expected Write to fail when the parent is a file")
	}

	if err := (FileSink{}).Write(Build("x.iso", "", nil)); err == nil {
		t.Error("Expected Write to fail without a path")
	}
}

// longRecordName is as long as a file name may be, so the record itself can
// exist but the temporary file created next to it cannot.
var longRecordName = strings.Repeat("r", 250) + ".json"

func TestFileSinkFailureKeepsPriorRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, longRecordName)

	prior, err := Encode(Build("prior.iso", "E:", []catalog.Entry{
		{ID: "git", DisplayName: "Git", InstallCommand: "winget install -e --id Git.Git"},
	}))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, prior, 0644); err != nil {
		t.Fatal(err)
	}

	if err := (FileSink{Path: path}).Write(Build("next.iso", "", nil)); err == nil {
		t.Fatal("Expected the replace to fail")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(prior) {
		t.Errorf("Prior record changed after a failed write:\n%s", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != longRecordName {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Expected only the record in %s, found %v", dir, names)
	}
}

func TestFileSinkDirectoryErrorIsClassified(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	err := FileSink{Path: filepath.Join(blocker, "sub", "user_selection.json")}.Write(Build("x.iso", "", nil))
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) {
		t.Errorf("Expected an *fs.PathError in the chain, got %v", err)
	}
}

func TestFileSinkMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on Windows")
	}

	dir := t.TempDir()
	fresh := filepath.Join(dir, "user_selection.json")
	if err := (FileSink{Path: fresh}).Write(Build("x.iso", "", nil)); err != nil {
		t.Fatal(err)
	}
	if got := permOf(t, fresh); got != 0644 {
		t.Errorf("New record mode = %v, want 0644", got)
	}

	restricted := filepath.Join(dir, "restricted.json")
	if err := os.WriteFile(restricted, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(restricted, 0600); err != nil {
		t.Fatal(err)
	}
	if err := (FileSink{Path: restricted}).Write(Build("x.iso", "", nil)); err != nil {
		t.Fatal(err)
	}
	if got := permOf(t, restricted); got != 0600 {
		t.Errorf("Replaced record mode = %v, want 0600 kept", got)
	}
}

func permOf(t *testing.T, path string) fs.FileMode {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return info.Mode().Perm()
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Read(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing record")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(bad); err == nil {
		t.Error("Expected error for malformed record")
	}
}
