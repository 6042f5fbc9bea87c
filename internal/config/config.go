package config

import (
	"math"
	"strings"

	"github.com/google/shlex"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/xcodebuild/fastkill/internal/platform"
)

// Configuration keys. Each can be set by its flag or by the environment
// variable FASTKILL_<KEY>, e.g. FASTKILL_LISTENING_ONLY=true.
const (
	KeyLister        = "lister"
	KeyListeningOnly = "listening_only"
	KeyPort          = "port"
	KeyList          = "list"
	KeyJSON          = "json"
	KeyVerbose       = "verbose"
	KeyQuiet         = "quiet"
)

const envPrefix = "FASTKILL"

type Config struct {
	Lister        []string
	ListeningOnly bool
	Port          uint16
	List          bool
	JSON          bool
	Verbose       bool
	Quiet         bool
}

// flagNames maps configuration keys to the flags that set them.
var flagNames = map[string]string{
	KeyLister:        "lister",
	KeyListeningOnly: "listening",
	KeyPort:          "port",
	KeyList:          "list",
	KeyJSON:          "json",
	KeyVerbose:       "verbose",
	KeyQuiet:         "quiet",
}

// Register adds the configuration flags to fs.
func Register(fs *pflag.FlagSet) {
	fs.String(flagNames[KeyLister], strings.Join(platform.DefaultLister, " "), "command listing open sockets (unix only)")
	fs.BoolP(flagNames[KeyListeningOnly], "L", false, "only show processes with a listening port")
	fs.UintP(flagNames[KeyPort], "p", 0, "only show processes listening on this port")
	fs.BoolP(flagNames[KeyList], "l", false, "print the process list and exit")
	fs.Bool(flagNames[KeyJSON], false, "with --list, print JSON")
	fs.BoolP(flagNames[KeyVerbose], "v", false, "verbose output")
	fs.BoolP(flagNames[KeyQuiet], "q", false, "suppress output")
}

// NewViper returns a viper instance reading flags registered on fs and the
// environment. No config file is read.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, name := range flagNames {
		flag := fs.Lookup(name)
		if flag == nil {
			return nil, errors.Errorf("flag --%s is not registered", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, errors.Wrapf(err, "failed to bind flag --%s", name)
		}
	}
	return v, nil
}

// Load reads and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	lister, err := shlex.Split(v.GetString(KeyLister))
	if err != nil {
		return nil, errors.Wrap(err, "invalid lister command")
	}
	if len(lister) == 0 {
		return nil, errors.New("lister command is empty")
	}

	port := v.GetUint(KeyPort)
	if port > math.MaxUint16 {
		return nil, errors.Errorf("port %d is out of range", port)
	}

	return &Config{
		Lister:        lister,
		ListeningOnly: v.GetBool(KeyListeningOnly),
		Port:          uint16(port),
		List:          v.GetBool(KeyList),
		JSON:          v.GetBool(KeyJSON),
		Verbose:       v.GetBool(KeyVerbose),
		Quiet:         v.GetBool(KeyQuiet),
	}, nil
}
