package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/opd-ai/envelope"
	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/crypto"
	"github.com/opd-ai/envelope/passwordhash"
	"github.com/urfave/cli/v2"
)

func hashCommand(cCtx *cli.Context) error {
	env, err := loadEnvelope(cCtx)
	if err != nil {
		return err
	}
	password, err := readPassword(cCtx, true)
	if err != nil {
		return err
	}
	ph, err := env.NewPasswordHash(password)
	if err != nil {
		return err
	}
	defer ph.Destroy()

	if err := os.WriteFile(cCtx.String(flagHash.Name), ph.Bytes(), 0o600); err != nil {
		return err
	}
	fmt.Fprintln(cCtx.App.Writer, "password hash written to", cCtx.String(flagHash.Name))
	return nil
}

// openHash reads the hash file and unlocks it with a prompted password.
func openHash(cCtx *cli.Context, env *envelope.Envelope) (*passwordhash.PasswordHash, error) {
	blob, err := os.ReadFile(cCtx.String(flagHash.Name))
	if err != nil {
		return nil, err
	}
	password, err := readPassword(cCtx, false)
	if err != nil {
		return nil, err
	}
	return env.OpenPasswordHash(blob, password)
}

func verifyCommand(cCtx *cli.Context) error {
	env, err := loadEnvelope(cCtx)
	if err != nil {
		return err
	}
	ph, err := openHash(cCtx, env)
	if err != nil {
		return err
	}
	ph.Destroy()
	fmt.Fprintln(cCtx.App.Writer, "password ok")
	return nil
}

func encryptCommand(cCtx *cli.Context) error {
	return transformFile(cCtx, (*passwordhash.PasswordHash).EncryptBytes)
}

func decryptCommand(cCtx *cli.Context) error {
	return transformFile(cCtx, (*passwordhash.PasswordHash).DecryptBytes)
}

func transformFile(cCtx *cli.Context, op func(*passwordhash.PasswordHash, []byte) ([]byte, error)) error {
	env, err := loadEnvelope(cCtx)
	if err != nil {
		return err
	}
	in, err := os.ReadFile(cCtx.String(flagIn.Name))
	if err != nil {
		return err
	}
	ph, err := openHash(cCtx, env)
	if err != nil {
		return err
	}
	defer ph.Destroy()

	out, err := op(ph, in)
	if err != nil {
		return err
	}
	defer crypto.ZeroBytes(out)
	return os.WriteFile(cCtx.String(flagOut.Name), out, 0o600)
}

func parseKeyType(name string) (catalog.AsymKeyType, error) {
	names := make([]string, 0, len(catalog.AsymKeyTypes()))
	for _, t := range catalog.AsymKeyTypes() {
		if strings.EqualFold(t.String(), name) {
			return t, nil
		}
		names = append(names, t.String())
	}
	return 0, fmt.Errorf("unknown key type %q (want one of %s)", name, strings.Join(names, ", "))
}

func keygenCommand(cCtx *cli.Context) error {
	t, err := parseKeyType(cCtx.String(flagKeyType.Name))
	if err != nil {
		return err
	}
	env, err := loadEnvelope(cCtx)
	if err != nil {
		return err
	}
	ph, err := openHash(cCtx, env)
	if err != nil {
		return err
	}
	defer ph.Destroy()

	key, err := env.GenerateKey(t)
	if err != nil {
		return err
	}
	defer key.Destroy()
	pair, err := key.Pair()
	if err != nil {
		return err
	}
	defer crypto.WipeKeyPair(pair)

	wrapped, err := ph.SecurePrivateKey(pair, key.Mode())
	if err != nil {
		return err
	}
	if err := os.WriteFile(cCtx.String(flagKey.Name), wrapped, 0o600); err != nil {
		return err
	}
	return printPublicBlob(cCtx, key.PublicBlob)
}

func pubkeyCommand(cCtx *cli.Context) error {
	env, err := loadEnvelope(cCtx)
	if err != nil {
		return err
	}
	wrapped, err := os.ReadFile(cCtx.String(flagKey.Name))
	if err != nil {
		return err
	}
	ph, err := openHash(cCtx, env)
	if err != nil {
		return err
	}
	defer ph.Destroy()

	key, err := env.KeyFromWrapped(ph, wrapped)
	if err != nil {
		return err
	}
	defer key.Destroy()
	return printPublicBlob(cCtx, key.PublicBlob)
}

func printPublicBlob(cCtx *cli.Context, blob func() ([]byte, error)) error {
	b, err := blob()
	if err != nil {
		return err
	}
	fmt.Fprintln(cCtx.App.Writer, base64.StdEncoding.EncodeToString(b))
	return nil
}
