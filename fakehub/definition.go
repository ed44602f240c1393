package fakehub

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/liamcoop/fakerules/fake"
)

// Definition describes the methods of a fake, keyed by method name.
type Definition map[string]MethodSpec

// MethodSpec declares one method by type name.
type MethodSpec struct {
	Params    []string `json:"params,omitempty"`
	Returns   string   `json:"returns,omitempty"`
	OutParams []string `json:"outParams,omitempty"`
	Error     bool     `json:"error,omitempty"`
}

var typesByName = map[string]reflect.Type{
	"int":       reflect.TypeFor[int](),
	"int64":     reflect.TypeFor[int64](),
	"float64":   reflect.TypeFor[float64](),
	"string":    reflect.TypeFor[string](),
	"bool":      reflect.TypeFor[bool](),
	"bytes":     reflect.TypeFor[[]byte](),
	"timestamp": reflect.TypeFor[time.Time](),
	"duration":  reflect.TypeFor[time.Duration](),
	"any":       reflect.TypeFor[any](),
}

// TypeOf resolves a definition type name.
func TypeOf(name string) (reflect.Type, bool) {
	t, ok := typesByName[name]
	return t, ok
}

// Decode converts a JSON value into the Go value for a definition type.
// An empty type name decodes into a generic value.
func Decode(typeName string, raw json.RawMessage) (any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if typeName == "" {
		typeName = "any"
	}
	t, ok := TypeOf(typeName)
	if !ok {
		return nil, fmt.Errorf("unknown type %q", typeName)
	}

	ptr := reflect.New(t)
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("value %s is not a valid %s: %w", raw, typeName, err)
	}
	return ptr.Elem().Interface(), nil
}

// methods builds the fake.Method values of def, owned by the fake name.
func (def Definition) methods(owner string) map[string]fake.Method {
	out := make(map[string]fake.Method, len(def))
	for name, spec := range def {
		var ret reflect.Type
		if spec.Returns != "" {
			ret = typesByName[spec.Returns]
		}
		m := fake.NewMethod(owner, name, ret, len(spec.OutParams))
		m.ParamTypes = make([]reflect.Type, len(spec.Params))
		for i, p := range spec.Params {
			m.ParamTypes[i] = typesByName[p]
		}
		m.ReturnsError = spec.Error
		out[name] = m
	}
	return out
}

// Names returns the method names in sorted order.
func (def Definition) Names() []string {
	names := make([]string, 0, len(def))
	for name := range def {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
