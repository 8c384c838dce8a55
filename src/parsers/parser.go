// src/parsers/parser.go
package parsers

import (
	"io"

	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
)

// Parser turns one uploaded deal file into loosely-typed records. Each
// format keeps its native key spellings; the field resolver downstream
// owns the alias mapping.
type Parser interface {
	Parse(file io.Reader) ([]models.RawDealRecord, error)
}
