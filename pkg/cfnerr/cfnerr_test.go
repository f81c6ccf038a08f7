package cfnerr

import "testing"

func TestMalformedDocumentError_Error(t *testing.T) {
	err := &MalformedDocumentError{Message: "missing Resources"}
	want := "malformed document: missing Resources"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
