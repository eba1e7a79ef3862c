// Package extract pulls tenant fingerprints (tax ids) out of raw uploaded
// documents. Extractors are pure functions over the byte buffer: no I/O, no
// errors. Absence of a fingerprint is a first-class result, never an
// exception, because the trust router treats "not detectable" as a routing
// outcome in its own right.
package extract

import (
	"veridoc/pkg/domain"
)

// Extractor pulls a tax id out of a raw document of one specific format.
// The boolean reports whether a fingerprint was found.
type Extractor func(doc []byte) (domain.TaxID, bool)

// extractors is the closed dispatch table. Every supported DocumentFormat
// must have an entry here; adding a format without one fails the dispatch
// completeness test, so a new format cannot silently fall through.
var extractors = map[domain.DocumentFormat]Extractor{
	domain.FormatXML:  FromXML,
	domain.FormatPDF:  fromPDF,
	domain.FormatXLSX: fromXLSX,
}

// Extract runs the extractor registered for the declared format.
func Extract(doc []byte, format domain.DocumentFormat) (domain.TaxID, bool) {
	extractor, ok := extractors[format]
	if !ok {
		return "", false
	}
	return extractor(doc)
}

// fromPDF is a declared capability gap: statements arrive as PDFs but no
// dedicated extractor exists yet, so the fingerprint is reported as not
// found deterministically and routing rejects the upload.
func fromPDF(_ []byte) (domain.TaxID, bool) {
	return "", false
}

// fromXLSX is a declared capability gap, same contract as fromPDF.
func fromXLSX(_ []byte) (domain.TaxID, bool) {
	return "", false
}
