package config

import (
	"reflect"

	"github.com/invopop/jsonschema"

	"go.viam.com/lineregistration/spatialmath"
)

var lineType = reflect.TypeOf(spatialmath.Line{})

// JobSchema returns the JSON schema of job files. Lines are described by their two-point array form.
func JobSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		Anonymous:                  true,
		DoNotReference:             true,
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t != lineType {
				return nil
			}
			return lineSchema()
		},
	}
	return r.Reflect(&jobFile{})
}

func lineSchema() *jsonschema.Schema {
	point := &jsonschema.Schema{
		Type:     "array",
		Items:    &jsonschema.Schema{Type: "number"},
		MinItems: 3,
		MaxItems: 3,
	}
	return &jsonschema.Schema{
		Type:        "array",
		Description: "line segment through two points",
		Items:       point,
		MinItems:    2,
		MaxItems:    2,
	}
}
