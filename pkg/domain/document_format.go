package domain

import dErrors "veridoc/pkg/domain-errors"

// DocumentFormat is the caller-declared format of an uploaded document.
// Invariant: the value must be one of the supported formats.
//
// Usage: construct via ParseDocumentFormat at trust boundaries so an unknown
// format is rejected at parse time instead of falling through to a default
// extractor somewhere downstream.
type DocumentFormat string

// Supported document formats.
const (
	FormatXML  DocumentFormat = "xml"
	FormatPDF  DocumentFormat = "pdf"
	FormatXLSX DocumentFormat = "xlsx"
)

// validDocumentFormats is the single source of truth for supported formats.
var validDocumentFormats = map[DocumentFormat]bool{
	FormatXML:  true,
	FormatPDF:  true,
	FormatXLSX: true,
}

// ParseDocumentFormat constructs a DocumentFormat from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported; no
// other errors are expected.
func ParseDocumentFormat(s string) (DocumentFormat, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "document format cannot be empty")
	}
	f := DocumentFormat(s)
	if !f.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported document format")
	}
	return f, nil
}

// IsValid checks if the format is one of the supported enum values.
func (f DocumentFormat) IsValid() bool {
	return validDocumentFormats[f]
}

func (f DocumentFormat) String() string { return string(f) }
