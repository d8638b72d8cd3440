package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/tink/go/keyset"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vdparikh/grille"
	"github.com/vdparikh/grille/tinkgrille"
)

// keyFlags are shared by every command that touches a keyset.
type keyFlags struct {
	path   string
	format string
	size   int
}

func (f *keyFlags) register(cmd *cobra.Command, withSize bool) {
	cmd.Flags().StringVarP(&f.path, "key", "k", "", "keyset file (default from config; - for stdin/stdout)")
	cmd.Flags().StringVar(&f.format, "key-format", "", "keyset encoding: json or binary (default from config)")
	if withSize {
		cmd.Flags().IntVarP(&f.size, "size", "s", 0, "grid size: 4, 5 or 6 (default from config)")
	}
}

// resolve fills unset flags from the loaded configuration.
func (a *app) resolve(f *keyFlags) (tinkgrille.Format, grille.Size, error) {
	if f.path == "" {
		f.path = a.cfg.KeyFile
	}
	if f.format == "" {
		f.format = a.cfg.KeyFormat
	}
	if f.size == 0 {
		f.size = a.cfg.Size
	}
	format, err := tinkgrille.ParseFormat(f.format)
	if err != nil {
		return "", 0, err
	}
	size := grille.Size(f.size)
	if !size.Valid() {
		return "", 0, fmt.Errorf("%w: %d", grille.ErrInvalidSize, f.size)
	}
	return format, size, nil
}

func (a *app) newKeygenCmd() *cobra.Command {
	var flags keyFlags
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new stencil and write it as a Tink keyset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, size, err := a.resolve(&flags)
			if err != nil {
				return err
			}
			if err := tinkgrille.Register(); err != nil {
				return err
			}

			handle, err := keyset.NewHandle(tinkgrille.KeyTemplateForSize(size))
			if err != nil {
				return fmt.Errorf("failed to create keyset: %w", err)
			}
			if err := a.writeKeyset(cmd, handle, flags.path, format); err != nil {
				return err
			}
			a.logger.Info("generated keyset",
				zap.String("path", flags.path),
				zap.Stringer("size", size),
				zap.Uint32("primary_key_id", handle.KeysetInfo().GetPrimaryKeyId()))
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}

func (a *app) newEncodeCmd() *cobra.Command {
	var (
		flags  keyFlags
		newKey bool
	)
	cmd := &cobra.Command{
		Use:   "encode [text...]",
		Short: "Encode text (from arguments or stdin)",
		Long: `Encode text with the keyset in --key. With --new-key, or when the keyset
file does not exist, a fresh stencil of --size is generated and written there.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, size, err := a.resolve(&flags)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			g, err := grille.New(append(a.cfg.GrilleOptions(), grille.WithLogger(a.logger))...)
			if err != nil {
				return err
			}

			var key *grille.Key
			if !newKey && flags.path != "-" {
				key, err = a.readKey(flags.path, format)
				if err != nil && !os.IsNotExist(err) {
					return err
				}
				if key != nil && cmd.Flags().Changed("size") && key.Size() != size {
					return fmt.Errorf("keyset %s holds a %s key but --size is %s; pass --new-key to replace it",
						flags.path, key.Size(), size)
				}
			}

			var ciphertext string
			if key == nil {
				ciphertext, key, err = g.Encode(text, size)
				if err != nil {
					return err
				}
				handle, err := tinkgrille.NewKeysetHandleFromKey(key)
				if err != nil {
					return err
				}
				if err := a.writeKeyset(cmd, handle, flags.path, format); err != nil {
					return err
				}
				a.logger.Info("wrote new keyset", zap.String("path", flags.path), zap.Stringer("size", key.Size()))
			} else {
				ciphertext, err = g.EncodeWithKey(text, key)
				if err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), ciphertext)
			return nil
		},
	}
	flags.register(cmd, true)
	cmd.Flags().BoolVar(&newKey, "new-key", false, "always generate a fresh stencil")
	return cmd
}

func (a *app) newDecodeCmd() *cobra.Command {
	var flags keyFlags
	cmd := &cobra.Command{
		Use:   "decode [ciphertext]",
		Short: "Decode ciphertext (from the argument or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _, err := a.resolve(&flags)
			if err != nil {
				return err
			}
			if flags.path == "-" {
				return fmt.Errorf("decode reads ciphertext from stdin; pass the keyset as a file")
			}
			ciphertext, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			handle, err := a.openKeyset(flags.path, format)
			if err != nil {
				return err
			}
			if err := tinkgrille.Register(); err != nil {
				return err
			}
			primitive, err := tinkgrille.New(handle, append(a.cfg.GrilleOptions(), grille.WithLogger(a.logger))...)
			if err != nil {
				return err
			}

			plaintext, err := primitive.Decrypt(ciphertext)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), plaintext)
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}

// readInput joins args with spaces, or reads all of stdin minus one trailing newline.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(text, "\r"), nil
}

func (a *app) openKeyset(path string, format tinkgrille.Format) (*keyset.Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tinkgrille.ReadKeyset(f, format)
}

func (a *app) readKey(path string, format tinkgrille.Format) (*grille.Key, error) {
	handle, err := a.openKeyset(path, format)
	if err != nil {
		return nil, err
	}
	key, err := tinkgrille.KeyFromHandle(handle)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("loaded keyset", zap.String("path", path), zap.Stringer("size", key.Size()))
	return key, nil
}

func (a *app) writeKeyset(cmd *cobra.Command, handle *keyset.Handle, path string, format tinkgrille.Format) error {
	if path == "-" {
		return tinkgrille.WriteKeyset(handle, cmd.OutOrStdout(), format)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create keyset file: %w", err)
	}
	if err := tinkgrille.WriteKeyset(handle, f, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
