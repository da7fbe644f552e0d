package shardkey

import "crypto/rand"

// RandomBytes returns n cryptographically random bytes, suitable for use
// as a secret handed to UpdateBytes.
func RandomBytes(n int) []byte {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return buf
}

// printableLo and printableHi bound the ASCII range RandomKey draws from:
// '!' through '~', every printable non-space, non-DEL character.
const (
	printableLo = 33
	printableHi = 126
)

// RandomKey returns an n-character random string drawn from printable
// ASCII, suitable as a human-typeable passphrase-like secret.
func RandomKey(n int) string {
	const span = printableHi - printableLo + 1
	buf := make([]byte, n)
	var b [1]byte
	for i := range buf {
		_, _ = rand.Read(b[:])
		buf[i] = printableLo + b[0]%span
	}
	return string(buf)
}
