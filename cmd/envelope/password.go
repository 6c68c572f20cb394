package main

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"

	"github.com/opd-ai/envelope/crypto"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

// readPassword returns the password from the configured environment variable,
// or prompts on the terminal. A new password is asked for twice.
func readPassword(cCtx *cli.Context, confirm bool) ([]byte, error) {
	if name := cCtx.String(flagPasswordEnv.Name); name != "" {
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			return nil, fmt.Errorf("environment variable %s is not set", name)
		}
		return []byte(value), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("interactive input required (or use --password-env)")
	}
	fmt.Fprint(cCtx.App.ErrWriter, "Enter password: ")
	p1, err := term.ReadPassword(fd)
	fmt.Fprintln(cCtx.App.ErrWriter)
	if err != nil {
		return nil, fmt.Errorf("password read failed: %w", err)
	}
	if !confirm {
		return p1, nil
	}

	fmt.Fprint(cCtx.App.ErrWriter, "Confirm password: ")
	p2, err := term.ReadPassword(fd)
	fmt.Fprintln(cCtx.App.ErrWriter)
	defer crypto.ZeroBytes(p2)
	if err != nil {
		crypto.ZeroBytes(p1)
		return nil, fmt.Errorf("password confirmation failed: %w", err)
	}
	if subtle.ConstantTimeCompare(p1, p2) != 1 {
		crypto.ZeroBytes(p1)
		return nil, errors.New("password mismatch")
	}
	return p1, nil
}
