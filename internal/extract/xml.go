package extract

import (
	"bytes"
	"regexp"

	"veridoc/pkg/domain"
)

// rfcAttribute matches an Rfc XML attribute whose value satisfies the RFC
// grammar. CFDI documents carry the identifier as Rfc="..." on both the
// Emisor and Receptor nodes; attribute-level matching avoids false positives
// on folio numbers and certificate serials elsewhere in the document.
var rfcAttribute = regexp.MustCompile(`(?i:rfc)\s*=\s*"([A-ZÑ&]{3,4}[0-9]{6}[A-Z0-9]{3})"`)

// receptorMarker locates the recipient section. Trust routing is anchored to
// the receiving party: an invoice belongs to the tenant it was issued TO,
// not the one who issued it.
var receptorMarker = []byte("Receptor")

// FromXML scans an invoice XML for the recipient's tax id.
//
// Matches positioned after the Receptor section's offset win over earlier
// Emisor matches. When no Receptor section exists the first grammar match
// anywhere is used, and when nothing matches the fingerprint is not found.
func FromXML(doc []byte) (domain.TaxID, bool) {
	matches := rfcAttribute.FindAllSubmatchIndex(doc, -1)
	if len(matches) == 0 {
		return "", false
	}

	receptorOffset := bytes.Index(doc, receptorMarker)
	if receptorOffset >= 0 {
		for _, m := range matches {
			if m[0] > receptorOffset {
				return taxIDAt(doc, m)
			}
		}
	}

	return taxIDAt(doc, matches[0])
}

func taxIDAt(doc []byte, match []int) (domain.TaxID, bool) {
	candidate := string(doc[match[2]:match[3]])
	if !domain.MatchTaxID(candidate) {
		return "", false
	}
	return domain.TaxID(candidate), true
}
