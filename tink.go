package grille

// Cipher is a Tink-style primitive: a Grille bound to one key.
// For Tink integration, see the tinkgrille package.
type Cipher interface {
	// Encrypt encodes plaintext through the bound stencil.
	Encrypt(plaintext string) (string, error)

	// Decrypt is the inverse of Encrypt. Trailing placeholders are stripped.
	Decrypt(ciphertext string) (string, error)
}

// Bind returns a Cipher that encodes and decodes with key.
func (g *Grille) Bind(key *Key) (Cipher, error) {
	if !key.valid() {
		return nil, ErrNilKey
	}
	return &boundCipher{g: g, key: key}, nil
}

type boundCipher struct {
	g   *Grille
	key *Key
}

func (c *boundCipher) Encrypt(plaintext string) (string, error) {
	return c.g.EncodeWithKey(plaintext, c.key)
}

func (c *boundCipher) Decrypt(ciphertext string) (string, error) {
	return c.g.Decode(ciphertext, c.key)
}

var _ Cipher = (*boundCipher)(nil)
