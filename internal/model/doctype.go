package model

import "strings"

// DocType classifies a document. The set is closed; see DocTypes.
type DocType string

const (
	DocTypeProcess DocType = "process"
	DocTypeWork    DocType = "work"

	// DefaultDocType is applied when an upload omits doc_type.
	DefaultDocType = DocTypeProcess
)

// DocTypes lists every accepted classification.
var DocTypes = []DocType{DocTypeProcess, DocTypeWork}

// ParseDocType normalises s and reports whether it names a known type.
func ParseDocType(s string) (DocType, bool) {
	t := DocType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range DocTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// Accepted upload content types.
const (
	MimePDF  = "application/pdf"
	MimeDOC  = "application/msword"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var allowedMimeTypes = map[string]struct{}{
	MimePDF:  {},
	MimeDOC:  {},
	MimeDOCX: {},
}

// IsAllowedMimeType reports whether mt (already normalised, without parameters) may be uploaded.
func IsAllowedMimeType(mt string) bool {
	_, ok := allowedMimeTypes[mt]
	return ok
}
