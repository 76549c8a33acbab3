package hexcounter

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrEmpty          = errors.New("hexcounter: empty value")
	ErrInvalidDigit   = errors.New("hexcounter: invalid hex digit")
	ErrLengthMismatch = errors.New("hexcounter: length mismatch")
)

// Counter is a big-endian string of lowercase hex digits that can be
// incremented in place. Its length is fixed at construction.
type Counter struct {
	digits []byte
}

// New creates a counter holding a copy of s
func New(s string) (*Counter, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}
	c := &Counter{digits: make([]byte, len(s))}
	copy(c.digits, s)
	return c, nil
}

// Reset loads s into the counter. s must have the counter's length.
func (c *Counter) Reset(s string) error {
	if err := Validate(s); err != nil {
		return err
	}
	if len(s) != len(c.digits) {
		return fmt.Errorf("%w: got %d digits, want %d", ErrLengthMismatch, len(s), len(c.digits))
	}
	copy(c.digits, s)
	return nil
}

// Increment advances the counter to its successor. Carry that runs past the
// most significant digit is dropped, so "ff" becomes "00".
func (c *Counter) Increment() {
	for i := len(c.digits) - 1; i >= 0; i-- {
		d := nextDigit(c.digits[i])
		c.digits[i] = d
		if d != '0' {
			return
		}
	}
}

// Bytes returns the digit buffer. It is only valid until the next Increment.
func (c *Counter) Bytes() []byte {
	return c.digits
}

func (c *Counter) String() string {
	return string(c.digits)
}

// Len returns the number of digits
func (c *Counter) Len() int {
	return len(c.digits)
}

// Increment returns the successor of s
func Increment(s string) (string, error) {
	c, err := New(s)
	if err != nil {
		return "", err
	}
	c.Increment()
	return c.String(), nil
}

// Validate reports whether s is a non-empty string of lowercase hex digits
func Validate(s string) error {
	if s == "" {
		return ErrEmpty
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return fmt.Errorf("%w: %q at position %d", ErrInvalidDigit, s[i], i)
		}
	}
	return nil
}

func isDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f')
}

// nextDigit: 9 -> a, f -> 0, everything else moves to the next character
func nextDigit(b byte) byte {
	switch b {
	case '9':
		return 'a'
	case 'f':
		return '0'
	default:
		return b + 1
	}
}
