package validator

import "strings"

// FieldType is the JSON type a schema field must have.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
)

// Bounds restricts a number field to [Min, Max].
type Bounds struct {
	Min float64
	Max float64
}

// Field is one entry of an extraction schema. Name is a dotted path into the
// JSON object (match_criteria.speed_match).
type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	Nullable    bool
	Description string
	// Lenient accepts the neighbouring JSON type when it can be converted
	// losslessly: currency strings for numbers, numbers for strings.
	Lenient bool
	Bounds  *Bounds
}

// Schema is the set of named, typed fields an extraction must contain.
type Schema struct {
	Fields []Field
}

// Field names of the NBN plan extraction.
const (
	FieldPlanName         = "plan_name"
	FieldPrice            = "price"
	FieldPriceString      = "price_string"
	FieldDownloadSpeed    = "download_speed"
	FieldUploadSpeed      = "upload_speed"
	FieldPromotionDetails = "promotion_details"
	FieldPlanDetails      = "plan_details"
	FieldVerified         = "verified"
	FieldConfidence       = "confidence"
	FieldSpeedMatch       = "match_criteria.speed_match"
)

// DefaultSchema is the NBN plan extraction schema.
func DefaultSchema() Schema {
	return Schema{Fields: []Field{
		{Name: FieldPlanName, Type: TypeString, Required: true, Description: `The official plan name, e.g. "NBN 250/25"`},
		{Name: FieldPrice, Type: TypeNumber, Required: true, Lenient: true, Description: "Numerical monthly price without currency symbols, e.g. 119.0"},
		{Name: FieldPriceString, Type: TypeString, Required: true, Description: `Full price as displayed, e.g. "$119.00/month"`},
		{Name: FieldDownloadSpeed, Type: TypeString, Required: true, Lenient: true, Description: `Download speed as displayed, e.g. "100Mbps"`},
		{Name: FieldUploadSpeed, Type: TypeString, Required: true, Lenient: true, Description: `Upload speed as displayed, e.g. "20Mbps"`},
		{Name: FieldPromotionDetails, Type: TypeString, Nullable: true, Description: `Promotion for this plan or null, e.g. "For 6 months then $110/mth"`},
		{Name: FieldPlanDetails, Type: TypeString, Required: true, Description: `Other plan details, e.g. "Unlimited data"`},
		{Name: FieldVerified, Type: TypeBoolean, Required: true, Description: "True when the plan was found on the page"},
		{Name: FieldConfidence, Type: TypeNumber, Required: true, Bounds: &Bounds{Min: 0, Max: 1}, Description: "Match quality between 0.0 and 1.0; aim for >= 0.8 for verification"},
		{Name: FieldSpeedMatch, Type: TypeBoolean, Required: true, Description: "True if the download speed is exactly the target speed"},
	}}
}

// Lookup returns the field with the given name.
func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Required lists required field names in schema order.
func (s Schema) Required() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Prompt renders the JSON shape the model is asked to return.
func (s Schema) Prompt() string {
	root := newShapeNode()
	for _, f := range s.Fields {
		root.insert(strings.Split(f.Name, "."), f)
	}
	var b strings.Builder
	root.render(&b, 0)
	return b.String()
}

type shapeNode struct {
	order    []string
	children map[string]*shapeNode
	field    *Field
}

func newShapeNode() *shapeNode {
	return &shapeNode{children: make(map[string]*shapeNode)}
}

func (n *shapeNode) insert(path []string, f Field) {
	child, ok := n.children[path[0]]
	if !ok {
		child = newShapeNode()
		n.children[path[0]] = child
		n.order = append(n.order, path[0])
	}
	if len(path) == 1 {
		field := f
		child.field = &field
		return
	}
	child.insert(path[1:], f)
}

func (n *shapeNode) render(b *strings.Builder, depth int) {
	indent := strings.Repeat("    ", depth+1)
	b.WriteString("{\n")
	for i, key := range n.order {
		child := n.children[key]
		b.WriteString(indent)
		b.WriteString(`"` + key + `": `)
		if child.field != nil && len(child.children) == 0 {
			b.WriteString(placeholder(*child.field))
		} else {
			child.render(b, depth+1)
		}
		if i < len(n.order)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("    ", depth))
	b.WriteString("}")
}

func placeholder(f Field) string {
	desc := f.Description
	if desc == "" {
		desc = f.Name
	}
	switch f.Type {
	case TypeString:
		if f.Nullable {
			return `"[` + desc + ` or null]"`
		}
		return `"[` + desc + `]"`
	default:
		return "[" + string(f.Type) + " - " + desc + "]"
	}
}
