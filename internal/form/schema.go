package form

import (
	"reflect"
	"strings"
	"time"

	"tourdesk/internal/validation"
)

type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindUint   Kind = "uint"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"
	KindList   Kind = "list"
	KindTime   Kind = "time"
)

// FieldSpec is the prompt-facing description of one draft field, read from
// its json and validate tags.
type FieldSpec struct {
	Name       string
	Kind       Kind
	Required   bool
	RequiredIf string
	Enum       []string
	Min        string
	Max        string
	Secret     bool
	Rules      []string
}

var timeType = reflect.TypeOf(time.Time{})

// Describe lists the editable fields of a draft struct in declaration order
func Describe(draft interface{}) []FieldSpec {
	t := reflect.TypeOf(draft)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	specs := make([]FieldSpec, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := jsonName(f)
		if name == "" {
			continue
		}
		spec := FieldSpec{
			Name:   name,
			Kind:   kindOf(f.Type),
			Secret: f.Tag.Get("form") == "secret",
		}
		applyRules(&spec, f.Tag.Get("validate"))
		specs = append(specs, spec)
	}
	return specs
}

func applyRules(spec *FieldSpec, tag string) {
	if tag == "" {
		return
	}
	for _, rule := range strings.Split(tag, ",") {
		if rule == "dive" {
			// everything after dive constrains list elements
			return
		}
		spec.Rules = append(spec.Rules, rule)
		name, param, _ := strings.Cut(rule, "=")
		switch name {
		case "required":
			spec.Required = true
		case "required_if":
			spec.RequiredIf = param
		case "min", "gte", "gt":
			spec.Min = param
		case "max", "lte", "lt":
			spec.Max = param
		default:
			if enum := validation.Enum(name, param); enum != nil {
				spec.Enum = enum
			}
		}
	}
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	default:
		return name
	}
}

func kindOf(t reflect.Type) Kind {
	if t == timeType || (t.Kind() == reflect.Pointer && t.Elem() == timeType) {
		return KindTime
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return KindInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindUint
	case reflect.Float32, reflect.Float64:
		return KindFloat
	case reflect.Bool:
		return KindBool
	case reflect.Slice:
		return KindList
	default:
		return KindString
	}
}
