// Package config loads the settings of the configuration store.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/oneconcern/confstore/pkg/configio"
	"github.com/oneconcern/confstore/pkg/dlogger"
	"github.com/oneconcern/confstore/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	// EnvPrefix prefixes environment variables overriding settings, e.g. CONFSTORE_ROOT
	EnvPrefix = "confstore"

	// EnvConfigFile points to an explicit settings file
	EnvConfigFile = "CONFSTORE_CONFIG"

	configName = "confstore"

	// DefaultRoot is where repositories are kept unless told otherwise
	DefaultRoot = "/tmp/confstore/git"

	// DefaultEncoding is the text encoding of stored files
	DefaultEncoding = "UTF-8"

	// DefaultBranch is the branch versions are committed to
	DefaultBranch = "main"

	// DefaultIDs is the scheme of generated element ids
	DefaultIDs = "uuid"
)

// Setting keys
const (
	KeyRoot     = "root"
	KeyEncoding = "encoding"
	KeyBranch   = "branch"
	KeyIDs      = "ids"
	KeyLogLevel = "log_level"
)

// ErrInvalid reports unusable settings
var ErrInvalid = errors.New("invalid settings")

// Config holds the settings of the configuration store
type Config struct {
	Root     string `mapstructure:"root" json:"root" yaml:"root" validate:"required"`
	Encoding string `mapstructure:"encoding" json:"encoding" yaml:"encoding" validate:"required"`
	Branch   string `mapstructure:"branch" json:"branch" yaml:"branch" validate:"required,excludesall=~^:?*["`
	IDs      string `mapstructure:"ids" json:"ids" yaml:"ids" validate:"required,oneof=uuid ksuid"`
	LogLevel string `mapstructure:"log_level" json:"log_level" yaml:"log_level" validate:"required,oneof=debug info warn error none"`

	fs afero.Fs
}

// Default settings
func Default() *Config {
	return &Config{
		Root:     DefaultRoot,
		Encoding: DefaultEncoding,
		Branch:   DefaultBranch,
		IDs:      DefaultIDs,
		LogLevel: dlogger.LogLevelInfo,
	}
}

// SetDefaults registers default settings with viper
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyRoot, d.Root)
	v.SetDefault(KeyEncoding, d.Encoding)
	v.SetDefault(KeyBranch, d.Branch)
	v.SetDefault(KeyIDs, d.IDs)
	v.SetDefault(KeyLogLevel, d.LogLevel)
}

// Load reads settings from a settings file, the environment and any flags already bound to v.
//
// The settings file is file when not empty, the one given by CONFSTORE_CONFIG, or confstore.yaml found in
// the current directory, $HOME/.confstore or /etc/confstore. A missing confstore.yaml is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	if file == "" {
		file = os.Getenv(EnvConfigFile)
	}
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("$HOME", "."+configName))
		v.AddConfigPath(filepath.Join("/etc", configName))
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, ErrInvalid.WrapMessage(err, "reading settings file")
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, ErrInvalid.WrapMessage(err, "decoding settings")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the settings and makes sure the root directory exists and is writable
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return ErrInvalid.Wrap(err)
	}
	if _, err := c.TextEncoding(); err != nil {
		return err
	}
	if _, ok := configio.IDGeneratorByName(c.IDs); !ok {
		return ErrInvalid.Wrapf("unknown id scheme %q", c.IDs)
	}
	return c.ensureRoot()
}

func (c *Config) filesystem() afero.Fs {
	if c.fs == nil {
		return afero.NewOsFs()
	}
	return c.fs
}

func (c *Config) ensureRoot() error {
	fs := c.filesystem()
	info, err := fs.Stat(c.Root)
	switch {
	case os.IsNotExist(err):
		if err = fs.MkdirAll(c.Root, 0o700); err != nil {
			return ErrInvalid.WrapMessage(err, "creating root directory %q", c.Root)
		}
	case err != nil:
		return ErrInvalid.WrapMessage(err, "root directory %q", c.Root)
	case !info.IsDir():
		return ErrInvalid.Wrapf("root %q is not a directory", c.Root)
	}

	probe, err := afero.TempFile(fs, c.Root, ".probe-")
	if err != nil {
		return ErrInvalid.WrapMessage(err, "root directory %q is not writable", c.Root)
	}
	name := probe.Name()
	_ = probe.Close()
	return fs.Remove(name)
}

// TextEncoding resolves the encoding of stored files, by its IANA or WHATWG name
func (c *Config) TextEncoding() (encoding.Encoding, error) {
	enc, err := htmlindex.Get(c.Encoding)
	if err != nil {
		return nil, ErrInvalid.WrapMessage(err, "encoding %q", c.Encoding)
	}
	return enc, nil
}

// IDGenerator yields the generator of element ids
func (c *Config) IDGenerator() configio.IDGenerator {
	g, ok := configio.IDGeneratorByName(c.IDs)
	if !ok {
		return configio.UUIDGenerator()
	}
	return g
}

// Logger builds a logger at the configured level
func (c *Config) Logger() (*zap.Logger, error) {
	l, err := dlogger.GetLogger(c.LogLevel)
	if err != nil {
		return nil, ErrInvalid.Wrap(err)
	}
	return l, nil
}
