package crypto

// Zero overwrites b with zeros in place.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
