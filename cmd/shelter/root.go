package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aretw0/shelter"
	"github.com/aretw0/shelter/pkg/codec"
)

const (
	cfgDir         = "dir"
	cfgEncrypt     = "encrypt"
	cfgSecretKey   = "secret_key"
	cfgSecretIV    = "secret_iv"
	cfgLenient     = "lenient"
	cfgReadOnly    = "read_only"
	cfgLockTimeout = "lock_timeout"
	cfgLogFile     = "log_file"
	cfgVerbose     = "verbose"

	envPrefix = "SHELTER"
)

var errNoSecrets = errors.New("encryption needs secret_key and secret_iv (flags, SHELTER_SECRET_KEY/SHELTER_SECRET_IV or shelter.yaml)")

// app carries the resolved configuration shared by every subcommand.
type app struct {
	v      *viper.Viper
	logger *slog.Logger
}

// newRootCmd builds the command tree. Each call returns an independent tree
// with its own configuration, so tests can run commands side by side.
func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "shelter",
		Short: "An encrypted file-backed record store",
		Long: `Shelter keeps schema-less JSON records in one file per table.
With encryption enabled the table content is stored as authenticated
AES-256-CBC ciphertext derived from two secrets.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			a.logger = a.newLogger(cmd.ErrOrStderr())
			slog.SetDefault(a.logger)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringP(cfgDir, "d", "", "Data directory (default: directory holding shelter.yaml, else ./data)")
	flags.Bool(cfgEncrypt, false, "Read and write tables encrypted")
	flags.String("secret-key", "", "Secret the AES key is derived from")
	flags.String("secret-iv", "", "Secret the IV is derived from")
	flags.Bool(cfgLenient, false, "Read undecodable tables as empty instead of failing")
	flags.Bool("read-only", false, "Reject every mutation")
	flags.Duration("lock-timeout", 0, "How long a mutation waits for a table lock")
	flags.String("log-file", "", "Write logs to a rotated file instead of stderr")
	flags.BoolP(cfgVerbose, "v", false, "Enable verbose logging")

	bind := map[string]string{
		cfgDir:         cfgDir,
		cfgEncrypt:     cfgEncrypt,
		cfgSecretKey:   "secret-key",
		cfgSecretIV:    "secret-iv",
		cfgLenient:     cfgLenient,
		cfgReadOnly:    "read-only",
		cfgLockTimeout: "lock-timeout",
		cfgLogFile:     "log-file",
		cfgVerbose:     cfgVerbose,
	}
	for key, flag := range bind {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		newCreateCmd(a),
		newReadCmd(a),
		newListCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newWhereCmd(a),
		newSearchCmd(a),
		newOrderCmd(a),
		newLimitCmd(a),
		newTablesCmd(a),
		newDropCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newEncryptStreamCmd(a),
		newDecryptStreamCmd(a),
		newWatchCmd(a),
		newDoctorCmd(a),
		newStatusCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fatal("shelter", err)
	}
}

// loadConfig layers flags over SHELTER_* variables over shelter.yaml.
func (a *app) loadConfig() error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	start := a.v.GetString(cfgDir)
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		start = wd
	}

	root, err := shelter.FindRoot(start)
	if err != nil {
		// No config file: the data directory defaults to ./data.
		if a.v.GetString(cfgDir) == "" {
			a.v.SetDefault(cfgDir, "data")
		}
		return nil
	}

	a.v.SetConfigFile(filepath.Join(root, shelter.ConfigFileName))
	a.v.SetConfigType("yaml")
	if err := a.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if a.v.GetString(cfgDir) == "" {
		a.v.SetDefault(cfgDir, root)
	}
	return nil
}

func (a *app) newLogger(stderr io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if a.v.GetBool(cfgVerbose) {
		level = slog.LevelDebug
	}

	var out io.Writer = stderr
	if file := a.v.GetString(cfgLogFile); file != "" {
		out = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10,
			MaxBackups: 5,
		}
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

func (a *app) dir() string {
	return a.v.GetString(cfgDir)
}

func (a *app) codec() (*codec.Codec, error) {
	key, iv := a.v.GetString(cfgSecretKey), a.v.GetString(cfgSecretIV)
	if key == "" || iv == "" {
		return nil, errNoSecrets
	}
	return shelter.NewCodec(key, iv)
}

// open returns the store described by the resolved configuration.
func (a *app) open() (*shelter.Store, error) {
	opts := []shelter.Option{
		shelter.WithLogger(a.logger),
		shelter.WithEncryption(a.v.GetBool(cfgEncrypt)),
		shelter.WithLenientReads(a.v.GetBool(cfgLenient)),
		shelter.WithReadOnly(a.v.GetBool(cfgReadOnly)),
	}
	if d := a.v.GetDuration(cfgLockTimeout); d > 0 {
		opts = append(opts, shelter.WithLockTimeout(d))
	}
	if a.v.GetBool(cfgEncrypt) {
		c, err := a.codec()
		if err != nil {
			return nil, err
		}
		opts = append(opts, shelter.WithCodec(c))
	}
	return shelter.Open(a.dir(), opts...)
}
