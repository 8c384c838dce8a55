// src/parsers/factory.go
package parsers

import (
	"fmt"

	"github.com/jrkphani/pipeline-pulse-sub003/src/parsers/crmjson"
	"github.com/jrkphani/pipeline-pulse-sub003/src/parsers/csvexport"
)

func GetParser(source string) (Parser, error) {
	switch source {
	case "upload-csv":
		return csvexport.NewParser(), nil
	case "upload-json":
		return crmjson.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for source: %s", source)
	}
}
