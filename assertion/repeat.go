package assertion

import "fmt"

// Repeat is a predicate over how many times a call occurred.
type Repeat struct {
	Match       func(n int) bool
	Description string
}

// Exactly matches a count of n.
func Exactly(n int) Repeat {
	return Repeat{
		Match:       func(c int) bool { return c == n },
		Description: "exactly " + times(n),
	}
}

// Once is Exactly(1).
func Once() Repeat {
	return Exactly(1)
}

// Twice is Exactly(2).
func Twice() Repeat {
	return Exactly(2)
}

// Never matches a count of zero.
func Never() Repeat {
	return Repeat{
		Match:       func(c int) bool { return c == 0 },
		Description: "never",
	}
}

// AtLeast matches counts of n or more.
func AtLeast(n int) Repeat {
	return Repeat{
		Match:       func(c int) bool { return c >= n },
		Description: "at least " + times(n),
	}
}

// AtMost matches counts of n or fewer.
func AtMost(n int) Repeat {
	return Repeat{
		Match:       func(c int) bool { return c <= n },
		Description: "at most " + times(n),
	}
}

// Like wraps a custom count predicate.
func Like(match func(n int) bool, description string) Repeat {
	return Repeat{Match: match, Description: description}
}

func times(n int) string {
	switch n {
	case 1:
		return "once"
	case 2:
		return "twice"
	default:
		return fmt.Sprintf("%d times", n)
	}
}
