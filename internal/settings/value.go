// Package settings models typed user setting values and the rules around them.
package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Type names the kind of value a setting holds.
type Type string

const (
	// TypeBoolean settings are rendered as a toggle.
	TypeBoolean Type = "boolean"
	// TypeNumber settings hold an integer.
	TypeNumber Type = "number"
	// TypeString settings hold free text.
	TypeString Type = "string"
)

var (
	// ErrUnknownType is returned for a type outside boolean, number and string.
	ErrUnknownType = errors.New("unknown setting type")
	// ErrInvalidBoolean is returned when a boolean is neither "true" nor "false".
	ErrInvalidBoolean = errors.New("value must be true or false")
	// ErrInvalidNumber is returned when a number value is not an integer.
	ErrInvalidNumber = errors.New("value must be a whole number")
)

// Types lists the supported setting types in display order.
var Types = []Type{TypeBoolean, TypeNumber, TypeString}

// ParseType validates a type name.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.TrimSpace(s)); t {
	case TypeBoolean, TypeNumber, TypeString:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// Value is a typed setting value. Its variants are Boolean, Number and Text.
type Value interface {
	// Type returns the setting type of the variant.
	Type() Type
	// String returns the stored representation.
	String() string

	isValue()
}

// Boolean is the value of a boolean setting.
type Boolean bool

// Number is the value of a number setting.
type Number int64

// Text is the value of a string setting.
type Text string

func (Boolean) Type() Type { return TypeBoolean }
func (Number) Type() Type  { return TypeNumber }
func (Text) Type() Type    { return TypeString }

func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }
func (n Number) String() string  { return strconv.FormatInt(int64(n), 10) }
func (t Text) String() string    { return string(t) }

func (Boolean) isValue() {}
func (Number) isValue()  {}
func (Text) isValue()    {}

// Parse converts raw input into the variant for t.
// Booleans accept "true" and "false", numbers are parsed as base 10 integers
// and strings are kept as entered.
func Parse(t Type, raw string) (Value, error) {
	switch t {
	case TypeBoolean:
		switch strings.TrimSpace(raw) {
		case "true":
			return Boolean(true), nil
		case "false":
			return Boolean(false), nil
		default:
			return nil, ErrInvalidBoolean
		}
	case TypeNumber:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, ErrInvalidNumber
		}

		return Number(n), nil
	case TypeString:
		return Text(raw), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

// Dispatch calls the handler matching the variant of v.
func Dispatch[R any](v Value, onBoolean func(Boolean) R, onNumber func(Number) R, onText func(Text) R) R {
	switch x := v.(type) {
	case Boolean:
		return onBoolean(x)
	case Number:
		return onNumber(x)
	case Text:
		return onText(x)
	default:
		// Value is sealed by isValue, so this only fires for a nil Value.
		panic(fmt.Sprintf("settings: no handler for %T", v))
	}
}
