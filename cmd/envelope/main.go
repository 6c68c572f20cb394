// Command envelope hashes passwords, encrypts files under them and manages
// password-wrapped asymmetric keys.
package main

import (
	"fmt"
	"os"

	"github.com/opd-ai/envelope"
	"github.com/opd-ai/envelope/crypto"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var flagConfig *cli.StringFlag = &cli.StringFlag{
	Name:  "config",
	Usage: "Path to a YAML configuration file",
}
var flagLogLevel *cli.StringFlag = &cli.StringFlag{
	Name:  "log-level",
	Value: "warn",
	Usage: "Log level (debug, info, warn, error)",
}
var flagLogFormat *cli.StringFlag = &cli.StringFlag{
	Name:  "log-format",
	Value: "text",
	Usage: "Log format (text, json)",
}
var flagPasswordEnv *cli.StringFlag = &cli.StringFlag{
	Name:  "password-env",
	Usage: "Read the password from this environment variable instead of the terminal",
}

var flagHash *cli.StringFlag = &cli.StringFlag{
	Name:  "hash",
	Value: "envelope.passhash",
	Usage: "Path to the password hash file",
}
var flagIn *cli.StringFlag = &cli.StringFlag{
	Name:     "in",
	Usage:    "Input file",
	Required: true,
}
var flagOut *cli.StringFlag = &cli.StringFlag{
	Name:     "out",
	Usage:    "Output file",
	Required: true,
}
var flagKey *cli.StringFlag = &cli.StringFlag{
	Name:  "key",
	Value: "envelope.key",
	Usage: "Path to the password-wrapped private key",
}
var flagKeyType *cli.StringFlag = &cli.StringFlag{
	Name:  "type",
	Value: "X25519",
	Usage: "Asymmetric key type",
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "envelope:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "envelope",
		Usage: "password hashing and self-describing encryption",
		Flags: []cli.Flag{
			flagConfig,
			flagLogLevel,
			flagLogFormat,
			flagPasswordEnv,
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			{
				Name:   "hash",
				Usage:  "Create a password hash file",
				Flags:  []cli.Flag{flagHash},
				Action: hashCommand,
			},
			{
				Name:   "verify",
				Usage:  "Check a password against a hash file",
				Flags:  []cli.Flag{flagHash},
				Action: verifyCommand,
			},
			{
				Name:   "encrypt",
				Usage:  "Encrypt a file under the password hash",
				Flags:  []cli.Flag{flagHash, flagIn, flagOut},
				Action: encryptCommand,
			},
			{
				Name:   "decrypt",
				Usage:  "Decrypt a file encrypted by the encrypt command",
				Flags:  []cli.Flag{flagHash, flagIn, flagOut},
				Action: decryptCommand,
			},
			{
				Name:   "keygen",
				Usage:  "Generate an asymmetric key wrapped under the password hash",
				Flags:  []cli.Flag{flagHash, flagKey, flagKeyType},
				Action: keygenCommand,
			},
			{
				Name:   "pubkey",
				Usage:  "Print the public blob of a wrapped key, base64 encoded",
				Flags:  []cli.Flag{flagHash, flagKey},
				Action: pubkeyCommand,
			},
		},
	}
}

func setupLogging(cCtx *cli.Context) error {
	level, err := logrus.ParseLevel(cCtx.String(flagLogLevel.Name))
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetOutput(cCtx.App.ErrWriter)

	switch cCtx.String(flagLogFormat.Name) {
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", cCtx.String(flagLogFormat.Name))
	}
	return nil
}

func loadEnvelope(cCtx *cli.Context) (*envelope.Envelope, error) {
	cfg := crypto.DefaultConfig()
	if path := cCtx.String(flagConfig.Name); path != "" {
		var err error
		cfg, err = envelope.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	return envelope.New(cfg)
}
