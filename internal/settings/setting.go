package settings

import "time"

// Setting is one of a user's settings: its definition merged with the user's value.
type Setting struct {
	ID                uint64
	Key               string
	Label             string
	Type              Type
	Value             string
	IsGDPR            bool
	LastUpdatedByUser *time.Time
}

// Typed parses the stored value.
func (s Setting) Typed() (Value, error) {
	return Parse(s.Type, s.Value)
}

// Control returns the input control for the setting. A stored value that no
// longer parses (for example after the definition changed type) is shown as
// the zero value of the type.
func (s Setting) Control() Control {
	v, err := s.Typed()
	if err != nil {
		v = zero(s.Type)
	}

	return ControlFor(v)
}

func zero(t Type) Value {
	switch t {
	case TypeBoolean:
		return Boolean(false)
	case TypeNumber:
		return Number(0)
	default:
		return Text("")
	}
}

// DefaultFor parses a default value entered in the registry and returns its
// stored form. An empty number or boolean default becomes the zero value.
func DefaultFor(t Type, raw string) (string, error) {
	if raw == "" && t != TypeString {
		if _, err := ParseType(string(t)); err != nil {
			return "", err
		}

		return zero(t).String(), nil
	}

	v, err := Parse(t, raw)
	if err != nil {
		return "", err
	}

	return v.String(), nil
}

// GDPRComplete reports whether every GDPR setting was acknowledged by its owner.
// A list without GDPR settings is complete.
func GDPRComplete(list []Setting) bool {
	for _, s := range list {
		if s.IsGDPR && s.LastUpdatedByUser == nil {
			return false
		}
	}

	return true
}

// StampGDPR returns a copy of list where every GDPR setting carries now as
// its owner acknowledgement.
func StampGDPR(list []Setting, now time.Time) []Setting {
	out := make([]Setting, len(list))
	copy(out, list)

	for i := range out {
		if out[i].IsGDPR {
			ts := now
			out[i].LastUpdatedByUser = &ts
		}
	}

	return out
}

// WithoutGDPR drops GDPR settings from list.
func WithoutGDPR(list []Setting) []Setting {
	out := make([]Setting, 0, len(list))

	for _, s := range list {
		if !s.IsGDPR {
			out = append(out, s)
		}
	}

	return out
}
