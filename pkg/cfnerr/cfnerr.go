// Package cfnerr provides the error types the lint pipeline returns.
// Most of the document-level problems spec.md describes (unknown Ref
// names, resources missing a Type, non-CFN resource types) are silent
// skips handled in pkg/ir and pkg/refextract, not errors. The one
// fatal class is a document too malformed to analyze at all.
package cfnerr

import "fmt"

// MalformedDocumentError is returned when a template cannot be parsed or
// lacks the minimal structure (a Resources mapping) needed to run the
// pipeline at all.
type MalformedDocumentError struct {
	Message string
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed document: %s", e.Message)
}
