package grille

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func mustKey(t *testing.T, size Size, coords []Coord) *Key {
	t.Helper()
	key, err := NewKey(size, coords)
	if err != nil {
		t.Fatalf("Failed to create key: %v", err)
	}
	return key
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	testCases := []string{
		"A",
		"AB",
		"HELLO WORLD",
		"The quick brown fox jumps over the lazy dog",
		"0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ",
		strings.Repeat("x", 36),
		"héllo wörld ✓",
	}

	for _, size := range allSizes {
		for _, plaintext := range testCases {
			name := fmt.Sprintf("%s/%d", size, len(plaintext))
			t.Run(name, func(t *testing.T) {
				ciphertext, key, err := Encode(plaintext, size)
				if err != nil {
					t.Fatalf("Failed to encode: %v", err)
				}
				if key.Size() != size {
					t.Errorf("key size = %d, want %d", key.Size(), size)
				}

				n := utf8.RuneCountInString(ciphertext)
				if n%size.BlockSize() != 0 {
					t.Errorf("ciphertext length %d is not a multiple of %d", n, size.BlockSize())
				}

				decoded, err := Decode(ciphertext, key)
				if err != nil {
					t.Fatalf("Failed to decode: %v", err)
				}
				if decoded != plaintext {
					t.Errorf("Round-trip failed: expected %q, got %q", plaintext, decoded)
				}
			})
		}
	}
}

func TestEncode_ConcreteScenario(t *testing.T) {
	key := mustKey(t, Size4, []Coord{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 1, Col: 1}})

	ciphertext, err := EncodeWithKey("AB", key)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	if want := "AB" + strings.Repeat("#", 14); ciphertext != want {
		t.Errorf("EncodeWithKey() = %q, want %q", ciphertext, want)
	}

	decoded, err := Decode(ciphertext, key)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if decoded != "AB" {
		t.Errorf("Decode() = %q, want %q", decoded, "AB")
	}
}

func TestEncode_KnownCiphertext(t *testing.T) {
	key := mustKey(t, Size4, []Coord{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 1, Col: 1}})

	ciphertext, err := EncodeWithKey("ABCDEFGHIJKLMNOPQR", key)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	// Second block is "QR" followed by 14 placeholders.
	want := "ABCMGDPNFHLOEKJI" + "QR" + strings.Repeat("#", 14)
	if ciphertext != want {
		t.Errorf("EncodeWithKey() = %q, want %q", ciphertext, want)
	}
}

func TestEncode_KnownCiphertextOddSize(t *testing.T) {
	key := mustKey(t, Size5, []Coord{
		{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 0, Col: 3},
		{Row: 1, Col: 1}, {Row: 1, Col: 2}, {Row: 2, Col: 2},
	})

	plaintext := "ABCDEFGHIJKLMNOPQRSTUVWXY"
	ciphertext, err := EncodeWithKey(plaintext, key)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	if want := "ABCDTKEFXUJMGYVILSRWHQPON"; ciphertext != want {
		t.Errorf("EncodeWithKey() = %q, want %q", ciphertext, want)
	}
	if strings.Count(ciphertext, "M") != 1 {
		t.Errorf("centre rune written %d times, want 1", strings.Count(ciphertext, "M"))
	}

	decoded, err := Decode(ciphertext, key)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if decoded != plaintext {
		t.Errorf("Decode() = %q, want %q", decoded, plaintext)
	}
}

func TestEncode_InvalidUTF8IsRejected(t *testing.T) {
	ciphertext, key, err := Encode("AB\xff\xfeCD", Size4)
	if !errors.Is(err, ErrInvalidText) {
		t.Fatalf("Encode() = %q, %v, %v; want ErrInvalidText", ciphertext, key, err)
	}
}

func TestZeroKey(t *testing.T) {
	var key Key

	if key.Size() != 0 || key.BlockSize() != 0 || key.Coords() != nil {
		t.Errorf("zero key reports size %d, block %d, coords %v", key.Size(), key.BlockSize(), key.Coords())
	}
	if got := key.String(); got != "grille.Key{}" {
		t.Errorf("String() = %q", got)
	}
	if _, err := key.MarshalBinary(); !errors.Is(err, ErrNilKey) {
		t.Errorf("MarshalBinary() error = %v, want ErrNilKey", err)
	}
	if fp := key.Fingerprint(); fp != 0 {
		t.Errorf("Fingerprint() = %d, want 0", fp)
	}
	if !key.Equal(&Key{}) {
		t.Error("zero keys are not equal")
	}
	g, err := New()
	if err != nil {
		t.Fatalf("Failed to create grille: %v", err)
	}
	if _, err := g.Bind(&key); !errors.Is(err, ErrNilKey) {
		t.Errorf("Bind(zero key) error = %v, want ErrNilKey", err)
	}
}

func TestEncode_PadsToFullBlock(t *testing.T) {
	for _, size := range allSizes {
		key, err := GenerateKey(size)
		if err != nil {
			t.Fatalf("Failed to generate key: %v", err)
		}
		for length := 1; length <= 2*size.BlockSize()+1; length++ {
			ciphertext, err := EncodeWithKey(strings.Repeat("a", length), key)
			if err != nil {
				t.Fatalf("Failed to encode: %v", err)
			}
			blocks := (length + size.BlockSize() - 1) / size.BlockSize()
			if got := len(ciphertext); got != blocks*size.BlockSize() {
				t.Errorf("%s: %d chars encoded to %d, want %d", size, length, got, blocks*size.BlockSize())
			}
		}
	}
}

func TestEncode_SizeAndKeyVariantsAgreeOnLength(t *testing.T) {
	// Both entry points pad to size², not size.
	text := strings.Repeat("z", 17)
	ct1, key, err := Encode(text, Size4)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	ct2, err := EncodeWithKey(text, key)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	if len(ct1) != 32 || len(ct2) != 32 {
		t.Errorf("lengths = %d and %d, want 32", len(ct1), len(ct2))
	}
	if ct1 != ct2 {
		t.Errorf("same key produced different ciphertexts: %q vs %q", ct1, ct2)
	}
}

func TestEncode_ExactBlockHasNoPadding(t *testing.T) {
	key := mustKey(t, Size4, []Coord{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 1, Col: 1}})
	ciphertext, err := EncodeWithKey("ABCDEFGHIJKLMNOP", key)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	if strings.ContainsRune(ciphertext, DefaultPlaceholder) {
		t.Errorf("ciphertext %q contains padding", ciphertext)
	}
}

func TestEncode_TrimsSurroundingSpaces(t *testing.T) {
	ciphertext, key, err := Encode("   HI THERE  ", Size5)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	decoded, err := Decode(ciphertext, key)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if decoded != "HI THERE" {
		t.Errorf("Decode() = %q, want %q", decoded, "HI THERE")
	}
}

func TestDecode_TrailingPlaceholderContentIsLost(t *testing.T) {
	// Known limitation: a placeholder at the very end of the plaintext is
	// indistinguishable from padding.
	key := mustKey(t, Size4, []Coord{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 1, Col: 1}})
	ciphertext, err := EncodeWithKey("ISSUE #", key)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	decoded, err := Decode(ciphertext, key)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if decoded != "ISSUE " {
		t.Errorf("Decode() = %q, want %q", decoded, "ISSUE ")
	}

	// Placeholders inside the text survive.
	ciphertext, err = EncodeWithKey("A#B", key)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	decoded, err = Decode(ciphertext, key)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if decoded != "A#B" {
		t.Errorf("Decode() = %q, want %q", decoded, "A#B")
	}
}

func TestErrors(t *testing.T) {
	key := mustKey(t, Size4, []Coord{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 1, Col: 1}})

	testCases := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{"Encode empty", func() error { _, _, err := Encode("", Size4); return err }, ErrEmptyText},
		{"Encode spaces only", func() error { _, _, err := Encode("    ", Size4); return err }, ErrEmptyText},
		{"Encode bad size", func() error { _, _, err := Encode("abc", Size(3)); return err }, ErrInvalidSize},
		{"EncodeWithKey empty", func() error { _, err := EncodeWithKey("", key); return err }, ErrEmptyText},
		{"EncodeWithKey nil key", func() error { _, err := EncodeWithKey("abc", nil); return err }, ErrNilKey},
		{"EncodeWithKey zero key", func() error { _, err := EncodeWithKey("abc", &Key{}); return err }, ErrNilKey},
		{"Decode empty", func() error { _, err := Decode("", key); return err }, ErrEmptyText},
		{"Decode nil key", func() error { _, err := Decode(strings.Repeat("a", 16), nil); return err }, ErrNilKey},
		{"Decode short", func() error { _, err := Decode("abc", key); return err }, ErrLengthMismatch},
		{"Decode off by one", func() error { _, err := Decode(strings.Repeat("a", 17), key); return err }, ErrLengthMismatch},
		{"Encode invalid UTF-8", func() error { _, _, err := Encode("AB\xff\xfeCD", Size4); return err }, ErrInvalidText},
		{"EncodeWithKey invalid UTF-8", func() error { _, err := EncodeWithKey("AB\xffCD", key); return err }, ErrInvalidText},
		{"Decode invalid UTF-8", func() error { _, err := Decode("AB\xff"+strings.Repeat("a", 13), key); return err }, ErrInvalidText},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !errors.Is(err, tc.wantErr) {
				t.Errorf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestDecode_WrongKeyScrambles(t *testing.T) {
	k1 := mustKey(t, Size4, []Coord{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 1, Col: 1}})
	k2 := mustKey(t, Size4, []Coord{{Row: 0, Col: 3}, {Row: 1, Col: 3}, {Row: 1, Col: 0}, {Row: 2, Col: 2}})

	plaintext := "ABCDEFGHIJKLMNOP"
	ciphertext, err := EncodeWithKey(plaintext, k1)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	decoded, err := Decode(ciphertext, k2)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if decoded == plaintext {
		t.Error("a different key recovered the plaintext")
	}
}

func TestNew_CustomPlaceholder(t *testing.T) {
	g, err := New(WithPlaceholder('~'))
	if err != nil {
		t.Fatalf("Failed to create grille: %v", err)
	}
	key := mustKey(t, Size4, []Coord{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 1, Col: 1}})

	ciphertext, err := g.EncodeWithKey("AB", key)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	if want := "AB" + strings.Repeat("~", 14); ciphertext != want {
		t.Errorf("EncodeWithKey() = %q, want %q", ciphertext, want)
	}

	// A '#' in the text is ordinary content under this configuration.
	ciphertext, err = g.EncodeWithKey("NO.#", key)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	decoded, err := g.Decode(ciphertext, key)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if decoded != "NO.#" {
		t.Errorf("Decode() = %q, want %q", decoded, "NO.#")
	}
}

func TestNew_InvalidPlaceholder(t *testing.T) {
	for _, r := range []rune{' ', utf8.RuneError, 0xD800} {
		if _, err := New(WithPlaceholder(r)); !errors.Is(err, ErrInvalidPlaceholder) {
			t.Errorf("New(WithPlaceholder(%U)) error = %v, want ErrInvalidPlaceholder", r, err)
		}
	}
}

func TestNew_LogsAtDebug(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	g, err := New(WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("Failed to create grille: %v", err)
	}

	ciphertext, key, err := g.Encode("LOG ME", Size6)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	if _, err := g.Decode(ciphertext, key); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	for _, msg := range []string{"generated grille key", "encoded message", "decoded message"} {
		if logs.FilterMessage(msg).Len() != 1 {
			t.Errorf("expected one %q entry, got %d", msg, logs.FilterMessage(msg).Len())
		}
	}
}

func TestBind(t *testing.T) {
	g, err := New()
	if err != nil {
		t.Fatalf("Failed to create grille: %v", err)
	}
	if _, err := g.Bind(nil); !errors.Is(err, ErrNilKey) {
		t.Errorf("Bind(nil) error = %v, want ErrNilKey", err)
	}

	key, err := GenerateKey(Size5)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	c, err := g.Bind(key)
	if err != nil {
		t.Fatalf("Failed to bind key: %v", err)
	}

	ciphertext, err := c.Encrypt("BOUND CIPHER")
	if err != nil {
		t.Fatalf("Failed to encrypt: %v", err)
	}
	plaintext, err := c.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Failed to decrypt: %v", err)
	}
	if plaintext != "BOUND CIPHER" {
		t.Errorf("Decrypt() = %q", plaintext)
	}
}

func TestConcurrentUse(t *testing.T) {
	key, err := GenerateKey(Size6)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			plaintext := fmt.Sprintf("message number %d from a goroutine", i)

			ciphertext, err := EncodeWithKey(plaintext, key)
			if err != nil {
				errs <- err
				return
			}
			decoded, err := Decode(ciphertext, key)
			if err != nil {
				errs <- err
				return
			}
			if decoded != plaintext {
				errs <- fmt.Errorf("round-trip failed: %q != %q", decoded, plaintext)
				return
			}

			// Fresh keys in parallel must not share a generator.
			if _, _, err := Encode(plaintext, Size5); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
