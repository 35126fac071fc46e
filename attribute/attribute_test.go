package attribute

import (
	"testing"

	"elogy.dev/core/model"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(discard{})
	return l
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func testLogbook() *model.Logbook {
	return &model.Logbook{
		Attributes: []model.AttributeSpec{
			{Name: "a", Type: model.AttributeNumber, Required: true},
			{Name: "b", Type: model.AttributeMultiOption, Options: []string{"x", "y", "z"}},
			{Name: "opt", Type: model.AttributeOption, Options: []string{"lo", "hi"}},
			{Name: "flag", Type: model.AttributeBoolean},
		},
	}
}

// TestAttributeCoercion mirrors spec scenario 6.
func TestAttributeCoercion(t *testing.T) {
	lb := testLogbook()
	out, err := CheckAttributes(testLogger(), lb, map[string]interface{}{
		"a": "3.5",
		"b": []interface{}{"x", "y"},
		"c": "ignored",
	})
	require.NoError(t, err)
	require.Equal(t, 3.5, out["a"].Number)
	require.ElementsMatch(t, []string{"x", "y"}, out["b"].MultiOption)
	_, hasC := out["c"]
	require.False(t, hasC)
}

func TestMissingRequiredAttributeRejected(t *testing.T) {
	lb := testLogbook()
	_, err := CheckAttributes(testLogger(), lb, map[string]interface{}{})
	require.Error(t, err)
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	require.True(t, ve.Attribute)
}

// TestInvalidMultiOptionValueDropped matches Open Question 2's decision:
// an invalid value is dropped, not a fatal rejection of the whole write.
func TestInvalidMultiOptionValueDropped(t *testing.T) {
	lb := testLogbook()
	out, err := CheckAttributes(testLogger(), lb, map[string]interface{}{
		"a": 1,
		"b": []interface{}{"q"},
	})
	require.NoError(t, err)
	require.Equal(t, 1.0, out["a"].Number)
	_, hasB := out["b"]
	require.False(t, hasB)
}

func TestEmptyMultiOptionInvalid(t *testing.T) {
	lb := testLogbook()
	out, err := CheckAttributes(testLogger(), lb, map[string]interface{}{
		"a": 1,
		"b": []interface{}{},
	})
	require.NoError(t, err)
	_, hasB := out["b"]
	require.False(t, hasB)
}

func TestOptionMustBeInOptions(t *testing.T) {
	lb := testLogbook()
	out, err := CheckAttributes(testLogger(), lb, map[string]interface{}{
		"a":   1,
		"opt": "medium",
	})
	require.NoError(t, err)
	_, hasOpt := out["opt"]
	require.False(t, hasOpt)

	out, err = CheckAttributes(testLogger(), lb, map[string]interface{}{
		"a":   1,
		"opt": "hi",
	})
	require.NoError(t, err)
	require.Equal(t, "hi", out["opt"].Option)
}

func TestBooleanStringTruthiness(t *testing.T) {
	lb := testLogbook()
	out, err := CheckAttributes(testLogger(), lb, map[string]interface{}{
		"a":    1,
		"flag": "false",
	})
	require.NoError(t, err)
	require.False(t, out["flag"].Bool)

	out, err = CheckAttributes(testLogger(), lb, map[string]interface{}{
		"a":    1,
		"flag": "0",
	})
	require.NoError(t, err)
	require.False(t, out["flag"].Bool)

	out, err = CheckAttributes(testLogger(), lb, map[string]interface{}{
		"a":    1,
		"flag": "yes",
	})
	require.NoError(t, err)
	require.True(t, out["flag"].Bool)
}

// TestConvertAttributesForDisplaySchemaChange confirms a historical entry's
// attribute whose name was since removed from the logbook schema is dropped,
// not erroring, on lazy display-time re-coercion.
func TestConvertAttributesForDisplaySchemaChange(t *testing.T) {
	lb := &model.Logbook{Attributes: []model.AttributeSpec{
		{Name: "a", Type: model.AttributeNumber},
	}}
	stored := map[string]model.AttributeValue{
		"a":       {Kind: model.KindNumber, Number: 2},
		"removed": {Kind: model.KindText, Text: "gone"},
	}
	out := ConvertAttributesForDisplay(testLogger(), lb, stored)
	require.Len(t, out, 1)
	require.Equal(t, 2.0, out["a"].Number)
}
