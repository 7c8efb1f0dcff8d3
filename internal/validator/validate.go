package validator

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
)

// Validate parses raw model output, checks it against schema and returns a
// normalized Result. speed_match is recomputed from download_speed against
// targetSpeed and verified is cleared when confidence is below
// VerifiedThreshold.
func Validate(raw string, schema Schema, targetSpeed float64) (*Result, error) {
	rep, err := ValidateReport(raw, schema, targetSpeed)
	if err != nil {
		return nil, err
	}
	return rep.Result, nil
}

// ValidateReport is Validate plus the corrections that were applied.
func ValidateReport(raw string, schema Schema, targetSpeed float64) (*Report, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	values := make(map[string]any, len(schema.Fields))
	rep := &Report{}
	for _, f := range schema.Fields {
		v, present, err := lookup(obj, f.Name)
		if err != nil {
			return nil, err
		}
		if !present {
			if f.Required {
				return nil, violation(f.Name, "required field is missing")
			}
			values[f.Name] = nil
			continue
		}
		if v == nil {
			if !f.Nullable {
				return nil, violation(f.Name, "must not be null")
			}
			values[f.Name] = nil
			continue
		}
		norm, fromString, err := coerce(f, v)
		if err != nil {
			return nil, err
		}
		if f.Name == FieldPrice && fromString {
			rep.PriceFromString = true
		}
		values[f.Name] = norm
	}

	res := buildResult(values)
	rep.ModelSpeedMatch = res.MatchCriteria.SpeedMatch
	res.MatchCriteria.SpeedMatch = SpeedMatches(res.DownloadSpeed, targetSpeed)
	if res.Verified && res.Confidence < VerifiedThreshold {
		res.Verified = false
		rep.Demoted = true
	}
	rep.Result = res
	return rep, nil
}

// decodeObject extracts the single JSON object from model output. Markdown
// code fences and prose around the object are tolerated; arrays, extra
// closing brackets and anything else are malformed.
func decodeObject(raw string) (map[string]any, error) {
	text := stripFences(strings.TrimSpace(raw))
	if text == "" {
		return nil, malformed("empty response")
	}
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if strings.HasPrefix(text, "[") || (start > 0 && strings.HasSuffix(strings.TrimSpace(text[:start]), "[")) {
		return nil, malformed("expected a single JSON object, got an array")
	}
	if start < 0 || end <= start {
		return nil, malformed("no JSON object found")
	}
	text = text[start : end+1]

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, &MalformedOutputError{Err: err}
	}
	if rest := strings.TrimSpace(text[dec.InputOffset():]); rest != "" {
		return nil, malformed("trailing data after JSON object")
	}
	return obj, nil
}

// stripFences returns the body of the first markdown code fence. Text after
// the opening backticks is dropped only when it is a bare language tag.
func stripFences(text string) string {
	open := strings.Index(text, "```")
	if open < 0 {
		return text
	}
	body := text[open+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && isLanguageTag(body[:nl]) {
		body = body[nl+1:]
	}
	if closing := strings.Index(body, "```"); closing >= 0 {
		body = body[:closing]
	}
	return strings.TrimSpace(body)
}

func isLanguageTag(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// lookup walks a dotted path. An intermediate value that is not an object is
// a type violation on the full field name.
func lookup(obj map[string]any, path string) (any, bool, error) {
	parts := strings.Split(path, ".")
	var cur any = obj
	for i, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false, violation(path, "%s is %s, expected object", strings.Join(parts[:i], "."), jsonType(cur))
		}
		v, ok := m[p]
		if !ok {
			return nil, false, nil
		}
		cur = v
	}
	return cur, true, nil
}

func coerce(f Field, v any) (any, bool, error) {
	switch f.Type {
	case TypeString:
		switch t := v.(type) {
		case string:
			if f.Nullable && isNullText(t) {
				return nil, false, nil
			}
			return t, false, nil
		case json.Number:
			if f.Lenient {
				return t.String(), false, nil
			}
		}
		return nil, false, violation(f.Name, "expected string, got %s", jsonType(v))
	case TypeNumber:
		var n float64
		fromString := false
		switch t := v.(type) {
		case json.Number:
			parsed, err := t.Float64()
			if err != nil {
				return nil, false, violation(f.Name, "invalid number %q", t.String())
			}
			n = parsed
		case string:
			parsed, ok := 0.0, false
			if f.Lenient {
				parsed, ok = ParsePrice(t)
			}
			if !ok {
				return nil, false, violation(f.Name, "expected number, got string %q", t)
			}
			n, fromString = parsed, true
		default:
			return nil, false, violation(f.Name, "expected number, got %s", jsonType(v))
		}
		if f.Bounds != nil && (n < f.Bounds.Min || n > f.Bounds.Max) {
			return nil, false, violation(f.Name, "%s outside [%s, %s]", formatFloat(n), formatFloat(f.Bounds.Min), formatFloat(f.Bounds.Max))
		}
		return n, fromString, nil
	case TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, false, nil
		}
		return nil, false, violation(f.Name, "expected boolean, got %s", jsonType(v))
	}
	return nil, false, violation(f.Name, "unsupported schema type %q", f.Type)
}

func buildResult(values map[string]any) *Result {
	str := func(k string) string {
		s, _ := values[k].(string)
		return s
	}
	num := func(k string) float64 {
		n, _ := values[k].(float64)
		return n
	}
	flag := func(k string) bool {
		b, _ := values[k].(bool)
		return b
	}

	res := &Result{
		PlanName:      str(FieldPlanName),
		Price:         num(FieldPrice),
		PriceString:   str(FieldPriceString),
		DownloadSpeed: str(FieldDownloadSpeed),
		UploadSpeed:   str(FieldUploadSpeed),
		PlanDetails:   str(FieldPlanDetails),
		Verified:      flag(FieldVerified),
		Confidence:    num(FieldConfidence),
		MatchCriteria: MatchCriteria{SpeedMatch: flag(FieldSpeedMatch)},
	}
	if promo, ok := values[FieldPromotionDetails].(string); ok {
		res.PromotionDetails = &promo
	}
	return res
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	return "unknown"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
