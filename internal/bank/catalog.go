package bank

import "regexp"

// Parser identifies which statement parser handles an issuer's files. The set
// is closed: adding a bank means adding a constant here and a catalog entry,
// so an unknown issuer can never silently route to a named parser.
type Parser string

const (
	ParserGeneric     Parser = "generic"
	ParserBBVA        Parser = "bbva"
	ParserSantander   Parser = "santander"
	ParserBanorte     Parser = "banorte"
	ParserCitibanamex Parser = "citibanamex"
	ParserHSBC        Parser = "hsbc"
	ParserScotiabank  Parser = "scotiabank"
)

// IssuerUnknown is reported when no catalog entry clears the naming bar.
const IssuerUnknown = "Unknown"

// Issuer is one catalog entry: the fingerprints a bank leaves in its
// statement exports.
type Issuer struct {
	// Name is the display name reported when the classification clears the
	// naming threshold.
	Name string
	// Keywords are matched by substring containment against the uppercased
	// statement text.
	Keywords []string
	// DatePatterns are the date layouts this bank prints movements with.
	DatePatterns []*regexp.Regexp
	// AccountPattern matches the bank's account number shape, when it has a
	// distinctive one.
	AccountPattern *regexp.Regexp
	Parser         Parser
}

// Scoring weights. Confidence is capped only by the weights an entry actually
// defines, not renormalized across issuers.
const (
	keywordWeight = 0.3
	dateWeight    = 0.2
	accountWeight = 0.2
)

// defaultCatalog lists the issuers the classifier knows. Order matters only
// for ties: the first highest score wins.
func defaultCatalog() []Issuer {
	return []Issuer{
		{
			Name:     "BBVA",
			Keywords: []string{"BBVA", "BANCOMER"},
			DatePatterns: []*regexp.Regexp{
				regexp.MustCompile(`\d{2}/[A-Z]{3}/\d{4}`),
				regexp.MustCompile(`\d{2}/[A-Z]{3}`),
			},
			AccountPattern: regexp.MustCompile(`\b\d{10}\b`),
			Parser:         ParserBBVA,
		},
		{
			Name:     "Santander",
			Keywords: []string{"SANTANDER"},
			DatePatterns: []*regexp.Regexp{
				regexp.MustCompile(`\d{2}-[A-Z]{3}-\d{4}`),
			},
			AccountPattern: regexp.MustCompile(`\b\d{11}\b`),
			Parser:         ParserSantander,
		},
		{
			Name:     "Banorte",
			Keywords: []string{"BANORTE"},
			DatePatterns: []*regexp.Regexp{
				regexp.MustCompile(`\d{2}-[A-Z]{3}-\d{2}\b`),
			},
			AccountPattern: regexp.MustCompile(`\b\d{10}\b`),
			Parser:         ParserBanorte,
		},
		{
			Name:     "Citibanamex",
			Keywords: []string{"CITIBANAMEX", "BANAMEX"},
			DatePatterns: []*regexp.Regexp{
				regexp.MustCompile(`\d{1,2} [A-Z]{3} \d{4}`),
			},
			AccountPattern: regexp.MustCompile(`\b\d{7}\b`),
			Parser:         ParserCitibanamex,
		},
		{
			Name:     "HSBC",
			Keywords: []string{"HSBC"},
			DatePatterns: []*regexp.Regexp{
				regexp.MustCompile(`\d{2} [A-Z]{3} \d{2}\b`),
			},
			AccountPattern: regexp.MustCompile(`\b\d{10}\b`),
			Parser:         ParserHSBC,
		},
		{
			Name:     "Scotiabank",
			Keywords: []string{"SCOTIABANK", "SCOTIA"},
			DatePatterns: []*regexp.Regexp{
				regexp.MustCompile(`\d{2}/\d{2}/\d{4}`),
			},
			AccountPattern: regexp.MustCompile(`\b\d{11}\b`),
			Parser:         ParserScotiabank,
		},
	}
}
