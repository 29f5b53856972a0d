package settings

// ControlKind is the input element used to edit a setting.
type ControlKind string

const (
	// ControlToggle is an on/off switch.
	ControlToggle ControlKind = "toggle"
	// ControlNumber is a numeric input.
	ControlNumber ControlKind = "number"
	// ControlText is a single line text input.
	ControlText ControlKind = "text"
)

// Control describes how a value is presented for editing.
type Control struct {
	Kind    ControlKind
	Value   string
	Checked bool
	// Next is the value a toggle submits when clicked.
	Next string
}

// ControlFor selects the control for v.
func ControlFor(v Value) Control {
	return Dispatch(v,
		func(b Boolean) Control {
			return Control{Kind: ControlToggle, Value: b.String(), Checked: bool(b), Next: (!b).String()}
		},
		func(n Number) Control {
			return Control{Kind: ControlNumber, Value: n.String()}
		},
		func(t Text) Control {
			return Control{Kind: ControlText, Value: t.String()}
		},
	)
}
