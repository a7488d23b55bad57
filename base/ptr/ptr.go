package ptr

// Bool returns a pointer to a copy of value
func Bool(value bool) *bool {
	return &value
}

// Uint16 returns a pointer to a copy of value
func Uint16(value uint16) *uint16 {
	return &value
}
