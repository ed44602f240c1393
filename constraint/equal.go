package constraint

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/google/go-cmp/cmp"
)

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

// Equal reports structural equality, descending into unexported fields.
// Values cmp cannot compare fall back to reflect.DeepEqual.
func Equal(a, b any) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = reflect.DeepEqual(a, b)
		}
	}()
	return cmp.Equal(a, b, exportAll)
}

// FormatValue renders an argument value for descriptions.
func FormatValue(v any) string {
	if v != nil && isNil(v) {
		return fmt.Sprintf("(%T)(nil)", v)
	}
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(x)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}
