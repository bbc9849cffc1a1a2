package drives

import "testing"

func TestListReportsNoDrives(t *testing.T) {
	got, err := List()
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Expected an empty, non-nil list, got %#v", got)
	}
}
