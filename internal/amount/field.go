package amount

// Field holds the last valid amount typed by the user.
// A rejected input leaves the held value untouched so the caller can keep
// showing it while the user retypes.
type Field struct {
	value *int64
}

// NewField returns a Field holding initial (nil means unset).
func NewField(initial *int64) *Field {
	return &Field{value: initial}
}

// Set parses input and, when valid, replaces the held value.
// Empty input is valid and clears the value. Returns false on rejection.
func (f *Field) Set(input string) bool {
	v, err := Parse(input)
	if err != nil {
		return false
	}
	f.value = v
	return true
}

// Value returns the held amount, or nil when unset.
func (f *Field) Value() *int64 {
	return f.value
}
