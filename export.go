package shardkey

import "github.com/arjunv/shardkey/internal/seal"

// ExportSealed reads the current secret and returns it wrapped in a
// passphrase-protected envelope, suitable for writing to a file or
// transmitting somewhere other than this executable's own sections.
func (k *KeyStore) ExportSealed(passphrase string) ([]byte, error) {
	secret, err := k.ReadBytes()
	if err != nil {
		return nil, err
	}
	envelope, err := seal.Seal(passphrase, secret)
	if err != nil {
		return nil, wrapErr(KindCrypto, "seal exported secret", err)
	}
	return envelope, nil
}

// ImportSealed opens a passphrase-protected envelope produced by
// ExportSealed (or seal.Seal directly) and writes its contents back into
// the store via UpdateBytes. A wrong passphrase or a corrupted envelope
// surfaces as KindCrypto and leaves the store untouched.
func (k *KeyStore) ImportSealed(passphrase string, envelope []byte) error {
	secret, err := seal.Open(passphrase, envelope)
	if err != nil {
		return wrapErr(KindCrypto, "open sealed secret", err)
	}
	return k.UpdateBytes(secret)
}
