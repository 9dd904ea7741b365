package enrich

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaName = "ExtractJobInfo"

// resultSchema is the only shape accepted from the model.
const resultSchema = `{
  "type": "object",
  "properties": {
    "prefecture": {
      "type": ["string", "null"],
      "description": "勤務地の都道府県名。見つからなければ null。例：東京都"
    },
    "companyName": {
      "type": ["string", "null"],
      "description": "応募先の会社名や施設名。見つからなければ null。例：株式会社○○、○○病院"
    }
  },
  "required": ["prefecture", "companyName"],
  "additionalProperties": false
}`

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaName+".json", strings.NewReader(resultSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaName + ".json")
}
