// Package tinkgrille provides Tink integration for the Cardan grille cipher.
// This file contains the factory function for creating grille primitives from Tink keyset handles.
package tinkgrille

import (
	"fmt"

	"github.com/google/tink/go/keyset"
	"github.com/vdparikh/grille"
)

// New creates a grille primitive from a Tink keyset handle.
// This is the main entry point for users following Tink's pattern.
// The KeyManager must be registered first (see Register).
//
// Example:
//
//	if err := tinkgrille.Register(); err != nil {
//	    return err
//	}
//	handle, err := keyset.NewHandle(tinkgrille.KeyTemplate())
//	if err != nil {
//	    return err
//	}
//	primitive, err := tinkgrille.New(handle)
//	if err != nil {
//	    return err
//	}
//	ciphertext, err := primitive.Encrypt("ATTACK AT DAWN")
func New(handle *keyset.Handle, opts ...grille.Option) (grille.Cipher, error) {
	if handle == nil {
		return nil, fmt.Errorf("keyset handle cannot be nil")
	}

	primitives, err := handle.Primitives()
	if err != nil {
		return nil, fmt.Errorf("failed to get primitives from handle: %w", err)
	}

	primary := primitives.Primary
	if primary == nil {
		return nil, fmt.Errorf("no primary key found in keyset")
	}

	key, ok := primary.Primitive.(*grille.Key)
	if !ok {
		return nil, fmt.Errorf("primary key %d is not a grille key (got %T)", primary.KeyID, primary.Primitive)
	}

	g, err := grille.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grille: %w", err)
	}
	return g.Bind(key)
}
