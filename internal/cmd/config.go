package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"

	"github.com/openpulsar/pulsarctl/internal/configpaths"
)

// Globals are the flags shared by every command. The config file mirrors
// this structure; flags and environment override file values.
type Globals struct {
	Log struct {
		Level     string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"PULSARCTL_LOG_LEVEL"`
		File      string `help:"Write logs to this file instead of the console" type:"path"`
		FrameFile string `help:"Write raw frame traffic to this file" type:"path" env:"PULSARCTL_FRAME_FILE"`
	} `embed:"" prefix:"log."`
	Dongle  string        `help:"Dongle variant to target" enum:"auto,1k,8k" default:"auto" env:"PULSARCTL_DONGLE"`
	Timeout time.Duration `help:"Per-frame acknowledgement timeout" default:"300ms" env:"PULSARCTL_TIMEOUT"`
}

// Config groups configuration-file helpers.
type Config struct {
	Init ConfigInit `cmd:"" help:"Generate a configuration file template"`
}

// ConfigInit scaffolds a config file with every global option at its
// default, derived from the Globals struct tags.
type ConfigInit struct {
	Format string `help:"Output format" enum:"json,yaml,toml" default:"json"`
	Output string `help:"Destination file path (defaults to the user config dir)" type:"path"`
	Force  bool   `help:"Overwrite if the file already exists"`
}

func (c *ConfigInit) Run() error {
	root := buildMapFromStruct(reflect.TypeOf(Globals{}))

	dest := c.Output
	if dest == "" {
		dir, err := configpaths.DefaultConfigDir()
		if err != nil {
			return err
		}
		dest = fmt.Sprintf("%s/config.%s", dir, c.Format)
	}
	if !c.Force {
		if _, err := os.Stat(dest); err == nil {
			return errors.New("destination exists; use --force to overwrite")
		}
	}
	if err := configpaths.EnsureDir(dest); err != nil {
		return err
	}

	var data []byte
	var err error
	switch c.Format {
	case "yaml":
		data, err = yaml.Marshal(root)
	case "toml":
		data, err = toml.Marshal(root)
	default:
		data, err = json.MarshalIndent(root, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}

func buildMapFromStruct(t reflect.Type) map[string]any {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := map[string]any{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("kong") == "-" {
			continue
		}

		if _, ok := f.Tag.Lookup("embed"); ok {
			name := strings.TrimSuffix(f.Tag.Get("prefix"), ".")
			sub := buildMapFromStruct(f.Type)
			if name != "" {
				out[name] = sub
			} else {
				for k, v := range sub {
					out[k] = v
				}
			}
			continue
		}

		out[lowerCamel(f.Name)] = defaultValueForField(f.Type, f.Tag.Get("default"))
	}
	return out
}

func defaultValueForField(t reflect.Type, def string) any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "time" && t.Name() == "Duration" {
		if def != "" {
			return def
		}
		return "0s"
	}
	switch t.Kind() {
	case reflect.String:
		return def
	case reflect.Bool:
		b, _ := strconv.ParseBool(def)
		return b
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, _ := strconv.ParseInt(def, 10, 64)
		return n
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, _ := strconv.ParseUint(def, 10, 64)
		return n
	case reflect.Float32, reflect.Float64:
		f, _ := strconv.ParseFloat(def, 64)
		return f
	default:
		return def
	}
}

func lowerCamel(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'A' && r[0] <= 'Z' {
		r[0] += 'a' - 'A'
	}
	return string(r)
}
