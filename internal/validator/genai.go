package validator

import (
	"strings"

	"google.golang.org/genai"
)

// GenAI renders the schema as a Gemini response schema. Nested dotted
// fields become nested objects; every object lists its required children.
func (s Schema) GenAI() *genai.Schema {
	root := &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}}
	for _, f := range s.Fields {
		parts := strings.Split(f.Name, ".")
		parent := root
		for _, p := range parts[:len(parts)-1] {
			child, ok := parent.Properties[p]
			if !ok {
				child = &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}}
				parent.Properties[p] = child
				parent.Required = appendUnique(parent.Required, p)
			}
			parent = child
		}
		leaf := parts[len(parts)-1]
		prop := &genai.Schema{Type: genaiType(f.Type), Description: f.Description}
		if f.Nullable {
			prop.Nullable = genai.Ptr(true)
		}
		parent.Properties[leaf] = prop
		if f.Required {
			parent.Required = appendUnique(parent.Required, leaf)
		}
	}
	return root
}

func genaiType(t FieldType) genai.Type {
	switch t {
	case TypeNumber:
		return genai.TypeNumber
	case TypeBoolean:
		return genai.TypeBoolean
	}
	return genai.TypeString
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
