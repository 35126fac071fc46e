package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"elogy.dev/core/model"
)

// JSON-typed columns, each stored as `gorm:"type:text"` and round-tripped
// through encoding/json since they hold structured data, not bytes.

// JSONMap backs free-form `metadata` columns.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]interface{}(m))
	return string(b), err
}

func (m *JSONMap) Scan(value interface{}) error {
	return scanJSON(value, m)
}

// JSONAttributeSpecs backs Logbook.attributes.
type JSONAttributeSpecs []model.AttributeSpec

func (a JSONAttributeSpecs) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]model.AttributeSpec(a))
	return string(b), err
}

func (a *JSONAttributeSpecs) Scan(value interface{}) error {
	return scanJSON(value, a)
}

// JSONAuthors backs Entry.authors and Change.change_authors.
type JSONAuthors []model.Author

func (a JSONAuthors) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]model.Author(a))
	return string(b), err
}

func (a *JSONAuthors) Scan(value interface{}) error {
	return scanJSON(value, a)
}

// JSONAttributes backs Entry.attributes, a map of attribute name to the
// AttributeValue sum type.
type JSONAttributes map[string]model.AttributeValue

func (a JSONAttributes) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]model.AttributeValue(a))
	return string(b), err
}

func (a *JSONAttributes) Scan(value interface{}) error {
	return scanJSON(value, a)
}

// JSONChanged backs Change.changed, the pre-image map keyed by field name.
type JSONChanged map[string]interface{}

func (c JSONChanged) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]interface{}(c))
	return string(b), err
}

func (c *JSONChanged) Scan(value interface{}) error {
	return scanJSON(value, c)
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("store: unsupported Scan source type %T", value)
	}
}
