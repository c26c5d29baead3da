package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoerce(t *testing.T) {
	when := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	testCases := []struct {
		description string
		input       interface{}
		expected    Value
		hasError    bool
	}{
		{
			description: "string",
			input:       "Building A",
			expected:    String("Building A"),
		},
		{
			description: "bool",
			input:       true,
			expected:    Bool(true),
		},
		{
			description: "float64",
			input:       12000.5,
			expected:    Number(12000.5),
		},
		{
			description: "int widens to number",
			input:       12000,
			expected:    Number(12000),
		},
		{
			description: "time",
			input:       when,
			expected:    Time(when),
		},
		{
			description: "nil time pointer is null",
			input:       (*time.Time)(nil),
			expected:    Null(),
		},
		{
			description: "nil is null",
			input:       nil,
			expected:    Null(),
		},
		{
			description: "value passes through",
			input:       Number(7),
			expected:    Number(7),
		},
		{
			description: "unsupported type",
			input:       []string{"a"},
			hasError:    true,
		},
		{
			description: "unsupported map",
			input:       map[string]int{"a": 1},
			hasError:    true,
		},
	}

	for _, testCase := range testCases {
		actual, err := Coerce(testCase.input)
		if testCase.hasError {
			assert.NotNil(t, err, testCase.description)
			continue
		}
		if !assert.Nil(t, err, testCase.description) {
			continue
		}
		assert.True(t, testCase.expected.Equal(actual), testCase.description)
	}
}

func TestValue_Timestamp(t *testing.T) {
	when := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	actual, err := Time(when).Timestamp()
	assert.Nil(t, err)
	assert.True(t, when.Equal(actual))

	actual, err = String("2024-05-01T10:30:00Z").Timestamp()
	assert.Nil(t, err)
	assert.True(t, when.Equal(actual))

	_, err = Number(1).Timestamp()
	assert.NotNil(t, err)
}

func TestValue_Accessors(t *testing.T) {
	text, err := String("x").Text()
	assert.Nil(t, err)
	assert.Equal(t, "x", text)
	_, err = Number(1).Text()
	assert.NotNil(t, err)

	num, err := Number(3.5).Float()
	assert.Nil(t, err)
	assert.Equal(t, 3.5, num)
	_, err = Bool(true).Float()
	assert.NotNil(t, err)

	flag, err := Bool(true).Truth()
	assert.Nil(t, err)
	assert.True(t, flag)
	_, err = Null().Truth()
	assert.NotNil(t, err)

	var zero Value
	assert.True(t, zero.IsNull())
	assert.True(t, zero.Equal(Null()))
}

func TestNewVariables(t *testing.T) {
	vars, err := NewVariables(map[string]interface{}{
		"doorType": "SECURITY_DOOR",
		"budget":   30000,
		"valid":    true,
	})
	assert.Nil(t, err)
	assert.True(t, String("SECURITY_DOOR").Equal(vars.Lookup("doorType")))
	assert.True(t, Number(30000).Equal(vars.Lookup("budget")))
	assert.True(t, vars.Lookup("absent").IsNull())
	assert.Equal(t, []string{"budget", "doorType", "valid"}, vars.Names())

	_, err = NewVariables(map[string]interface{}{"bad": struct{}{}})
	if assert.NotNil(t, err) {
		coercion, ok := err.(*CoercionError)
		if assert.True(t, ok) {
			assert.Equal(t, "bad", coercion.Name)
		}
	}
}

func TestVariables_Clone(t *testing.T) {
	original := Variables{"a": Number(1)}
	clone := original.Clone()
	clone["a"] = Number(2)
	assert.True(t, Number(1).Equal(original.Lookup("a")))
}
