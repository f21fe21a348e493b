package catalog

import _ "embed"

//go:embed questions.json
var seedBank []byte

// LoadDefault builds the catalog from the question bank embedded in the
// binary.
func LoadDefault() (*Catalog, error) {
	return Parse(seedBank)
}
