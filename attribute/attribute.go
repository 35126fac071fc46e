// Package attribute validates and coerces entry attributes against the
// owning logbook's AttributeSpec schema.
package attribute

import (
	"fmt"
	"strconv"
	"strings"

	"elogy.dev/core/model"
	"github.com/sirupsen/logrus"
)

// CheckAttributes coerces candidate (untyped, e.g. freshly unmarshalled JSON)
// against logbook's AttributeSpec list and returns the typed result.
//
//  1. Computes the required set from the logbook's AttributeSpec list.
//  2. Missing required names fail with a ValidationError enumerating them.
//  3. Each supplied value is coerced per its declared type.
//  4. Coercion failures on a single attribute are logged and the attribute
//     dropped (not fatal).
//  5. Unknown attribute names are dropped.
func CheckAttributes(logger *logrus.Logger, lb *model.Logbook, candidate map[string]interface{}) (map[string]model.AttributeValue, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	specByName := make(map[string]model.AttributeSpec, len(lb.Attributes))
	for _, spec := range lb.Attributes {
		specByName[spec.Name] = spec
	}

	var missing []string
	for _, spec := range lb.Attributes {
		if !spec.Required {
			continue
		}
		if _, ok := candidate[spec.Name]; !ok {
			missing = append(missing, spec.Name)
		}
	}
	if len(missing) > 0 {
		return nil, model.NewAttributeValidationError("attributes", fmt.Sprintf("missing required attributes: %s", strings.Join(missing, ", ")))
	}

	out := make(map[string]model.AttributeValue, len(candidate))
	for name, raw := range candidate {
		spec, known := specByName[name]
		if !known {
			logger.WithField("attribute", name).Warn("dropping unknown attribute")
			continue
		}
		value, err := coerce(spec, raw)
		if err != nil {
			logger.WithField("attribute", name).WithError(err).Warn("dropping attribute with invalid value")
			continue
		}
		out[name] = value
	}
	return out, nil
}

// ConvertAttributesForDisplay re-applies coercion at read time so historical
// entries survive schema changes made to their logbook after the entry was
// written.
func ConvertAttributesForDisplay(logger *logrus.Logger, lb *model.Logbook, stored map[string]model.AttributeValue) map[string]model.AttributeValue {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	specByName := make(map[string]model.AttributeSpec, len(lb.Attributes))
	for _, spec := range lb.Attributes {
		specByName[spec.Name] = spec
	}

	out := make(map[string]model.AttributeValue, len(stored))
	for name, v := range stored {
		spec, known := specByName[name]
		if !known {
			continue
		}
		value, err := coerce(spec, v.Raw())
		if err != nil {
			logger.WithField("attribute", name).WithError(err).Debug("dropping attribute on display coercion")
			continue
		}
		out[name] = value
	}
	return out
}

func coerce(spec model.AttributeSpec, raw interface{}) (model.AttributeValue, error) {
	switch spec.Type {
	case model.AttributeText:
		return model.AttributeValue{Kind: model.KindText, Text: fmt.Sprint(raw)}, nil

	case model.AttributeNumber:
		n, err := toFloat(raw)
		if err != nil {
			return model.AttributeValue{}, fmt.Errorf("not numeric: %w", err)
		}
		return model.AttributeValue{Kind: model.KindNumber, Number: n}, nil

	case model.AttributeBoolean:
		return model.AttributeValue{Kind: model.KindBool, Bool: toBool(raw)}, nil

	case model.AttributeOption:
		s := fmt.Sprint(raw)
		if !contains(spec.Options, s) {
			return model.AttributeValue{}, fmt.Errorf("value %q not in options", s)
		}
		return model.AttributeValue{Kind: model.KindOption, Option: s}, nil

	case model.AttributeMultiOption:
		items, err := toStringList(raw)
		if err != nil {
			return model.AttributeValue{}, err
		}
		if len(items) == 0 {
			return model.AttributeValue{}, fmt.Errorf("empty multioption value")
		}
		for _, item := range items {
			if !contains(spec.Options, item) {
				return model.AttributeValue{}, fmt.Errorf("value %q not in options", item)
			}
		}
		return model.AttributeValue{Kind: model.KindMultiOption, MultiOption: items}, nil

	default:
		return model.AttributeValue{}, fmt.Errorf("unknown attribute type %q", spec.Type)
	}
}

func toFloat(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", raw)
	}
}

// toBool treats the strings "false"/"0" as false (string truthiness coercion).
func toBool(raw interface{}) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		lower := strings.ToLower(strings.TrimSpace(v))
		return lower != "" && lower != "false" && lower != "0"
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return raw != nil
	}
}

func toStringList(raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", raw)
	}
}

func contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
