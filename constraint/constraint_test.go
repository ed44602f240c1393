package constraint

import (
	"reflect"
	"testing"
)

func greaterThan(n int) func(any) bool {
	return func(arg any) bool {
		v, ok := arg.(int)
		return ok && v > n
	}
}

func lessThan(n int) func(any) bool {
	return func(arg any) bool {
		v, ok := arg.(int)
		return ok && v < n
	}
}

func TestRootScope(t *testing.T) {
	root := Root()
	for _, v := range []any{nil, 1, "x"} {
		if !root.IsValid(v) {
			t.Errorf("Root().IsValid(%v) = false, want true", v)
		}
	}
	if !root.ResultOfChildConstraintIsValid(true) || root.ResultOfChildConstraintIsValid(false) {
		t.Error("root scope must pass the child result through")
	}
	if root.String() != "" {
		t.Errorf("Root().String() = %q, want empty", root.String())
	}
}

func TestNotInvertsOnlyTheChild(t *testing.T) {
	s := Not(Root())
	if !s.IsValid(1) {
		t.Error("not scope must delegate IsValid to its parent")
	}
	if s.ResultOfChildConstraintIsValid(true) {
		t.Error("not scope must invert a true child result")
	}
	if !s.ResultOfChildConstraintIsValid(false) {
		t.Error("not scope must invert a false child result")
	}
}

func TestComposition(t *testing.T) {
	tests := []struct {
		name string
		c    *Constraint
		arg  any
		want bool
	}{
		{"matches true", That().Matches(greaterThan(5), "> 5"), 6, true},
		{"matches false", That().Matches(greaterThan(5), "> 5"), 5, false},
		{"not of false", That().Not().Matches(greaterThan(5), "> 5"), 5, true},
		{"not of true", That().Not().Matches(greaterThan(5), "> 5"), 6, false},
		{"and both", That().Matches(greaterThan(1), "> 1").And().Matches(lessThan(5), "< 5"), 3, true},
		{"and left fails", That().Matches(greaterThan(1), "> 1").And().Matches(lessThan(5), "< 5"), 0, false},
		{"and right fails", That().Matches(greaterThan(1), "> 1").And().Matches(lessThan(5), "< 5"), 7, false},
		{"and not", That().Matches(greaterThan(1), "> 1").And().Not().Matches(lessThan(5), "< 5"), 7, true},
		{"and not parent fails", That().Matches(greaterThan(1), "> 1").And().Not().Matches(lessThan(5), "< 5"), 0, false},
		{"not parent then and", That().Not().Matches(greaterThan(5), "> 5").And().Matches(greaterThan(1), "> 1"), 6, false},
		{"or left", That().Matches(lessThan(0), "< 0").Or(That().Matches(greaterThan(10), "> 10")), -1, true},
		{"or right", That().Matches(lessThan(0), "< 0").Or(That().Matches(greaterThan(10), "> 10")), 11, true},
		{"or neither", That().Matches(lessThan(0), "< 0").Or(That().Matches(greaterThan(10), "> 10")), 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.IsValid(tt.arg); got != tt.want {
				t.Errorf("%s.IsValid(%v) = %v, want %v", tt.c, tt.arg, got, tt.want)
			}
		})
	}
}

func TestIsValidIsPure(t *testing.T) {
	c := That().Matches(greaterThan(1), "> 1").And().Not().Matches(lessThan(5), "< 5")
	for i := 0; i < 3; i++ {
		if c.IsValid(7) != c.IsValid(7) {
			t.Fatal("IsValid must be deterministic")
		}
	}
}

func TestDescriptions(t *testing.T) {
	tests := []struct {
		name string
		c    *Constraint
		want string
	}{
		{"plain", That().Matches(greaterThan(1), "greater than 1"), "<greater than 1>"},
		{"not", That().Not().Matches(greaterThan(1), "greater than 1"), "<not greater than 1>"},
		{"and", That().Matches(greaterThan(1), "greater than 1").And().Matches(lessThan(5), "less than 5"), "<greater than 1 and less than 5>"},
		{"and not", That().Matches(greaterThan(1), "greater than 1").And().Not().Matches(lessThan(5), "less than 5"), "<greater than 1 and not less than 5>"},
		{"or", That().IsNil().Or(That().IsEmpty()), "<(nil) or (empty)>"},
		{"equal string", EqualTo("a"), `<equal to "a">`},
		{"equal int", EqualTo(3), "<equal to 3>"},
		{"any", Any(), "<ignored>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

type account struct {
	ID    int
	email string
	Tags  []string
}

func TestIsEqualToIsStructural(t *testing.T) {
	c := EqualTo(account{ID: 1, email: "a@b", Tags: []string{"x"}})

	if !c.IsValid(account{ID: 1, email: "a@b", Tags: []string{"x"}}) {
		t.Error("structurally equal values should match")
	}
	if c.IsValid(account{ID: 1, email: "other", Tags: []string{"x"}}) {
		t.Error("values differing in an unexported field should not match")
	}
	if c.IsValid(&account{ID: 1, email: "a@b", Tags: []string{"x"}}) {
		t.Error("pointer and value should not match")
	}
}

func TestBuiltins(t *testing.T) {
	var nilPtr *account
	errType := reflect.TypeOf((*error)(nil)).Elem()

	tests := []struct {
		name string
		c    *Constraint
		arg  any
		want bool
	}{
		{"nil untyped", That().IsNil(), nil, true},
		{"nil typed pointer", That().IsNil(), nilPtr, true},
		{"nil non-nil", That().IsNil(), 0, false},
		{"not nil", That().Not().IsNil(), "x", true},
		{"instance of concrete", That().IsInstanceOf(reflect.TypeOf(0)), 5, true},
		{"instance of wrong", That().IsInstanceOf(reflect.TypeOf(0)), "5", false},
		{"instance of interface", That().IsInstanceOf(errType), errTest("x"), true},
		{"instance of nil", That().IsInstanceOf(errType), nil, false},
		{"contains", That().Contains("ell"), "hello", true},
		{"contains non-string", That().Contains("1"), 1, false},
		{"empty string", That().IsEmpty(), "", true},
		{"empty slice", That().IsEmpty(), []int{}, true},
		{"non-empty map", That().IsEmpty(), map[string]int{"a": 1}, false},
		{"empty int", That().IsEmpty(), 0, false},
		{"typed matching", Matching(func(s string) bool { return len(s) == 3 }, "length 3"), "abc", true},
		{"typed matching wrong type", Matching(func(s string) bool { return true }, "any string"), 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.IsValid(tt.arg); got != tt.want {
				t.Errorf("%s.IsValid(%v) = %v, want %v", tt.c, tt.arg, got, tt.want)
			}
		})
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }

func TestSatisfies(t *testing.T) {
	c, err := That().Satisfies(`arg >= 18`)
	if err != nil {
		t.Fatalf("Satisfies() failed: %v", err)
	}
	if !c.IsValid(21) {
		t.Error("21 should satisfy arg >= 18")
	}
	if c.IsValid(3) {
		t.Error("3 should not satisfy arg >= 18")
	}
	if c.IsValid("text") {
		t.Error("evaluation errors should count as a mismatch")
	}
	if c.String() != "<satisfying arg >= 18>" {
		t.Errorf("String() = %q", c.String())
	}

	negated, err := That().Not().Satisfies(`arg >= 18`)
	if err != nil {
		t.Fatalf("Satisfies() failed: %v", err)
	}
	if !negated.IsValid(3) {
		t.Error("not satisfying should accept 3")
	}
}

func TestSatisfiesCompileError(t *testing.T) {
	if _, err := That().Satisfies(`arg >=`); err == nil {
		t.Error("Satisfies() should reject invalid expressions")
	}
}

func TestFormatValue(t *testing.T) {
	var nilPtr *account
	tests := []struct {
		in   any
		want string
	}{
		{nil, "nil"},
		{"a", `"a"`},
		{42, "42"},
		{errTest("boom"), "boom"},
		{nilPtr, "(*constraint.account)(nil)"},
		{[]int{1, 2}, "[1 2]"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
