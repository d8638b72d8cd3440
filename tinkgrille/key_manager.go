// Package tinkgrille provides Tink integration for the Cardan grille cipher.
// This file contains the KeyManager implementation that registers grille keys with Tink's registry.
package tinkgrille

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/google/tink/go/core/registry"
	"github.com/google/tink/go/insecurecleartextkeyset"
	"github.com/google/tink/go/keyset"
	"github.com/google/tink/go/proto/tink_go_proto"
	"github.com/vdparikh/grille"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// GrilleKeyTypeURL is the type URL for Cardan grille keys in Tink's registry.
	GrilleKeyTypeURL = "type.googleapis.com/vdparikh.grille.CardanGrilleKey"
)

// KeyManager implements registry.KeyManager for grille keys.
// The serialized key is the grille.Key binary encoding; the key template value
// is a single byte holding the grid size.
type KeyManager struct {
	typeURL string
}

// NewKeyManager creates a new grille key manager.
func NewKeyManager() *KeyManager {
	return &KeyManager{
		typeURL: GrilleKeyTypeURL,
	}
}

// Register adds the grille KeyManager to Tink's registry.
// It is safe to call more than once.
func Register() error {
	if _, err := registry.GetKeyManager(GrilleKeyTypeURL); err == nil {
		return nil
	}
	if err := registry.RegisterKeyManager(NewKeyManager()); err != nil {
		// Lost a race with a concurrent Register.
		if _, getErr := registry.GetKeyManager(GrilleKeyTypeURL); getErr == nil {
			return nil
		}
		return fmt.Errorf("failed to register grille key manager: %w", err)
	}
	return nil
}

// Primitive parses a serialized grille key. The returned value is a *grille.Key.
func (km *KeyManager) Primitive(serializedKey []byte) (interface{}, error) {
	key, err := grille.ParseKey(serializedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse grille key: %w", err)
	}
	return key, nil
}

// DoesSupport returns true if this KeyManager supports the given key type URL.
func (km *KeyManager) DoesSupport(typeURL string) bool {
	return typeURL == km.typeURL
}

// TypeURL returns the type URL of the keys managed by this KeyManager.
func (km *KeyManager) TypeURL() string {
	return km.typeURL
}

// NewKey generates a new key according to the given key template.
// The key is returned as a BytesValue wrapping its binary encoding.
func (km *KeyManager) NewKey(serializedKeyTemplate []byte) (proto.Message, error) {
	raw, err := newSerializedKey(serializedKeyTemplate)
	if err != nil {
		return nil, err
	}
	return wrapperspb.Bytes(raw), nil
}

// NewKeyData creates a new KeyData from the given key template.
func (km *KeyManager) NewKeyData(serializedKeyTemplate []byte) (*tink_go_proto.KeyData, error) {
	raw, err := newSerializedKey(serializedKeyTemplate)
	if err != nil {
		return nil, err
	}
	return &tink_go_proto.KeyData{
		TypeUrl:         km.typeURL,
		Value:           raw,
		KeyMaterialType: tink_go_proto.KeyData_SYMMETRIC,
	}, nil
}

// newSerializedKey generates a random stencil for the size held in the template.
// An empty template selects a 4x4 grid.
func newSerializedKey(serializedKeyTemplate []byte) ([]byte, error) {
	size := grille.Size4
	switch len(serializedKeyTemplate) {
	case 0:
	case 1:
		size = grille.Size(serializedKeyTemplate[0])
	default:
		return nil, fmt.Errorf("invalid key template: %d bytes (want 1)", len(serializedKeyTemplate))
	}

	key, err := grille.GenerateKey(size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate grille key: %w", err)
	}
	return key.MarshalBinary()
}

// Verify that KeyManager implements registry.KeyManager
var _ registry.KeyManager = (*KeyManager)(nil)

// KeyTemplate creates a key template for grille keys on a 4x4 grid.
// This allows users to generate keys with a single line:
//
//	handle, err := keyset.NewHandle(tinkgrille.KeyTemplate())
//
// For other grid sizes, use KeyTemplate5x5() or KeyTemplate6x6().
func KeyTemplate() *tink_go_proto.KeyTemplate {
	return KeyTemplateForSize(grille.Size4)
}

// KeyTemplate5x5 creates a key template for grille keys on a 5x5 grid.
func KeyTemplate5x5() *tink_go_proto.KeyTemplate {
	return KeyTemplateForSize(grille.Size5)
}

// KeyTemplate6x6 creates a key template for grille keys on a 6x6 grid.
func KeyTemplate6x6() *tink_go_proto.KeyTemplate {
	return KeyTemplateForSize(grille.Size6)
}

// KeyTemplateForSize creates a key template for the given grid size.
// An unsupported size is reported when the template is used.
func KeyTemplateForSize(size grille.Size) *tink_go_proto.KeyTemplate {
	return &tink_go_proto.KeyTemplate{
		TypeUrl:          GrilleKeyTypeURL,
		Value:            []byte{byte(size)},
		OutputPrefixType: tink_go_proto.OutputPrefixType_RAW,
	}
}

// NewKeysetHandleFromKey wraps an existing grille key, e.g. one returned by
// grille.Encode, in a single-key keyset handle.
//
// Example:
//
//	ciphertext, key, err := grille.Encode("MEET AT NOON", grille.Size5)
//	if err != nil {
//		log.Fatal(err)
//	}
//	handle, err := tinkgrille.NewKeysetHandleFromKey(key)
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = tinkgrille.WriteKeyset(handle, conn, tinkgrille.FormatJSON)
//
// Note: This creates an unencrypted keyset. Anyone holding it can decode the
// messages; protect the channel it travels over.
func NewKeysetHandleFromKey(key *grille.Key) (*keyset.Handle, error) {
	if key == nil {
		return nil, grille.ErrNilKey
	}
	raw, err := key.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode key: %w", err)
	}

	// Generate a unique key ID
	keyIDBytes := make([]byte, 4)
	if _, err := rand.Read(keyIDBytes); err != nil {
		return nil, fmt.Errorf("failed to generate key ID: %w", err)
	}
	keyID := binary.BigEndian.Uint32(keyIDBytes)
	if keyID == 0 {
		keyID = 1
	}

	keysetKey := &tink_go_proto.Keyset_Key{
		KeyData: &tink_go_proto.KeyData{
			TypeUrl:         GrilleKeyTypeURL,
			Value:           raw,
			KeyMaterialType: tink_go_proto.KeyData_SYMMETRIC,
		},
		KeyId:            keyID,
		Status:           tink_go_proto.KeyStatusType_ENABLED,
		OutputPrefixType: tink_go_proto.OutputPrefixType_RAW,
	}

	ks := &tink_go_proto.Keyset{
		PrimaryKeyId: keyID,
		Key:          []*tink_go_proto.Keyset_Key{keysetKey},
	}

	buf := &keyset.MemReaderWriter{Keyset: ks}
	return insecurecleartextkeyset.Read(buf)
}

// KeyFromHandle extracts the primary grille key from a cleartext keyset handle.
// Unlike New it does not need the KeyManager to be registered.
func KeyFromHandle(handle *keyset.Handle) (*grille.Key, error) {
	if handle == nil {
		return nil, fmt.Errorf("keyset handle cannot be nil")
	}

	ks := insecurecleartextkeyset.KeysetMaterial(handle)
	for _, k := range ks.GetKey() {
		if k.GetKeyId() != ks.GetPrimaryKeyId() {
			continue
		}
		kd := k.GetKeyData()
		if kd.GetTypeUrl() != GrilleKeyTypeURL {
			return nil, fmt.Errorf("primary key has type %q, want %q", kd.GetTypeUrl(), GrilleKeyTypeURL)
		}
		if kd.GetKeyMaterialType() != tink_go_proto.KeyData_SYMMETRIC {
			return nil, fmt.Errorf("unsupported key material type %v", kd.GetKeyMaterialType())
		}
		return grille.ParseKey(kd.GetValue())
	}
	return nil, fmt.Errorf("primary key %d not found in keyset", ks.GetPrimaryKeyId())
}
