package state

import "sort"

// Variables holds a process instance's context as name to value mapping.
type Variables map[string]Value

// NewVariables coerces a plain map into Variables; the first unsupported
// value aborts with an error naming the offending variable.
func NewVariables(from map[string]interface{}) (Variables, error) {
	ret := make(Variables, len(from))
	for name, raw := range from {
		value, err := Coerce(raw)
		if err != nil {
			return nil, &CoercionError{Name: name, Err: err}
		}
		ret[name] = value
	}
	return ret, nil
}

// Clone returns an independent copy.
func (v Variables) Clone() Variables {
	ret := make(Variables, len(v))
	for name, value := range v {
		ret[name] = value
	}
	return ret
}

// Interface exports all variables as plain Go values.
func (v Variables) Interface() map[string]interface{} {
	ret := make(map[string]interface{}, len(v))
	for name, value := range v {
		ret[name] = value.Interface()
	}
	return ret
}

// Lookup returns the value for name; absent names yield null.
func (v Variables) Lookup(name string) Value {
	value, ok := v[name]
	if !ok {
		return Null()
	}
	return value
}

// Names returns all variable names in lexical order.
func (v Variables) Names() []string {
	ret := make([]string, 0, len(v))
	for name := range v {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// CoercionError reports a variable whose value does not fit the closed union.
type CoercionError struct {
	Name string
	Err  error
}

func (e *CoercionError) Error() string {
	return "variable " + e.Name + ": " + e.Err.Error()
}

func (e *CoercionError) Unwrap() error { return e.Err }
