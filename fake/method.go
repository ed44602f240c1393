package fake

import (
	"fmt"
	"reflect"
)

// MethodIdentity identifies a member of a faked type. Two identities are
// equal iff they name the same member of the same type.
type MethodIdentity struct {
	Owner string
	Name  string
}

// String returns "Owner.Name"
func (id MethodIdentity) String() string {
	if id.Owner == "" {
		return id.Name
	}
	return id.Owner + "." + id.Name
}

// Method describes a faked member.
type Method struct {
	Identity   MethodIdentity
	ParamTypes []reflect.Type

	// ReturnType is the first non-error result, nil when there is none.
	ReturnType reflect.Type

	// OutParams counts the non-error results after the first one.
	OutParams int

	// ReturnsError is set when the last result is an error.
	ReturnsError bool

	// Variadic is set when the last parameter is variadic.
	Variadic bool
}

// NewMethod describes a method by hand, for proxies that do not use reflection.
func NewMethod(owner, name string, returnType reflect.Type, outParams int) Method {
	return Method{
		Identity:   MethodIdentity{Owner: owner, Name: name},
		ReturnType: returnType,
		OutParams:  outParams,
	}
}

// String returns the method identity
func (m Method) String() string {
	return m.Identity.String()
}

var errorType = reflect.TypeFor[error]()

// MethodOf describes method name of the interface type I.
func MethodOf[I any](name string) (Method, error) {
	t := reflect.TypeFor[I]()
	if t.Kind() != reflect.Interface {
		return Method{}, fmt.Errorf("%s is not an interface type", t)
	}

	rm, ok := t.MethodByName(name)
	if !ok {
		return Method{}, fmt.Errorf("%s has no method %s", t, name)
	}

	return methodFromFunc(typeOwner(t), rm.Name, rm.Type), nil
}

// MustMethodOf is like MethodOf but panics on error.
func MustMethodOf[I any](name string) Method {
	m, err := MethodOf[I](name)
	if err != nil {
		panic(err)
	}
	return m
}

// MethodsOf describes every method of the interface type I, in the order
// reflection reports them.
func MethodsOf[I any]() ([]Method, error) {
	t := reflect.TypeFor[I]()
	if t.Kind() != reflect.Interface {
		return nil, fmt.Errorf("%s is not an interface type", t)
	}

	owner := typeOwner(t)
	methods := make([]Method, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		rm := t.Method(i)
		methods = append(methods, methodFromFunc(owner, rm.Name, rm.Type))
	}
	return methods, nil
}

func typeOwner(t reflect.Type) string {
	if t.Name() == "" {
		return t.String()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

func methodFromFunc(owner, name string, ft reflect.Type) Method {
	m := Method{
		Identity: MethodIdentity{Owner: owner, Name: name},
		Variadic: ft.IsVariadic(),
	}

	for i := 0; i < ft.NumIn(); i++ {
		m.ParamTypes = append(m.ParamTypes, ft.In(i))
	}

	results := make([]reflect.Type, 0, ft.NumOut())
	for i := 0; i < ft.NumOut(); i++ {
		results = append(results, ft.Out(i))
	}
	if n := len(results); n > 0 && results[n-1] == errorType {
		m.ReturnsError = true
		results = results[:n-1]
	}
	if len(results) > 0 {
		m.ReturnType = results[0]
		m.OutParams = len(results) - 1
	}
	return m
}
