// Package config fills configuration structs from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	// ErrInvalidConfig is returned when the provided config is not a pointer to a struct
	// that embeds EnvConfig.
	ErrInvalidConfig = errors.New("config must be a pointer to a struct embedding EnvConfig")

	// ErrVarNotSet is returned when a required environment variable is not set and has no default.
	ErrVarNotSet = errors.New("env var not set")

	// ErrUnsupportedVarType is returned when a field has a type Parse cannot fill.
	ErrUnsupportedVarType = errors.New("unsupported env var type")
)

//nolint:gochecknoglobals
var durationType = reflect.TypeOf(time.Duration(0))

// EnvConfig must be embedded in configuration structs passed to Parse.
type EnvConfig struct {
	namespace string
}

// Namespace returns the namespace the config was parsed with.
func (c EnvConfig) Namespace() string {
	return c.namespace
}

// LoadDotEnv loads variables from the given .env files into the process environment.
// Variables that are already set win over the files. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	return nil
}

//nolint:varnamelen
func getEnvConfig(cfg any) (*EnvConfig, error) {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, ErrInvalidConfig
	}

	v = v.Elem()
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		//nolint:exhaustruct,forcetypeassert
		if field.Anonymous && field.Type == reflect.TypeOf(EnvConfig{}) {
			return v.Field(i).Addr().Interface().(*EnvConfig), nil
		}
	}

	return nil, ErrInvalidConfig
}

// Parse fills cfg from environment variables named by `env` tags.
// Nested structs add their `envPrefix` tag to the names of their fields. Each name is
// looked up under the longest namespace prefix first: with namespace "DEMO_SESSIONSVC"
// the field `env:"LEVEL"` in a struct tagged `envPrefix:"LOG_"` is read from
// DEMO_SESSIONSVC_LOG_LEVEL, then DEMO_LOG_LEVEL, then LOG_LEVEL. The `default` tag
// applies when none is set; without it the variable is required.
// Supported field types: string, ints, time.Duration, floats and bool.
func Parse(_ context.Context, cfg any, namespace string) error {
	envConfig, err := getEnvConfig(cfg)
	if err != nil {
		return fmt.Errorf("get env config: %w", err)
	}

	envConfig.namespace = namespace

	return parse(namespace, "", reflect.ValueOf(cfg).Elem())
}

func parse(namespace, prefix string, v reflect.Value) error {
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := parse(namespace, prefix+field.Tag.Get("envPrefix"), v.Field(i)); err != nil {
				return err
			}

			continue
		}

		if err := parseField(namespace, prefix, field, v.Field(i)); err != nil {
			return fmt.Errorf("parse field: %w", err)
		}
	}

	return nil
}

func lookupEnv(namespace, name string) (string, bool) {
	nsParts := strings.Split(namespace, "_")

	for i := len(nsParts); i > 0; i-- {
		envName := strings.Join(nsParts[:i], "_")
		if envName != "" {
			envName += "_"
		}

		if value, ok := os.LookupEnv(envName + name); ok {
			return value, true
		}
	}

	return "", false
}

//nolint:cyclop
func parseField(namespace, prefix string, field reflect.StructField, value reflect.Value) error {
	envTag := field.Tag.Get("env")
	if envTag == "" {
		return nil
	}

	envValue, ok := lookupEnv(namespace, prefix+envTag)
	if !ok {
		defaultValue, hasDefault := field.Tag.Lookup("default")
		if !hasDefault {
			return fmt.Errorf("%w: %s", ErrVarNotSet, prefix+envTag)
		}

		envValue = defaultValue
	}

	if field.Type == durationType {
		d, err := time.ParseDuration(envValue)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", envTag, err)
		}

		value.SetInt(int64(d))

		return nil
	}

	//nolint:exhaustive
	switch field.Type.Kind() {
	case reflect.String:
		value.SetString(envValue)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(envValue, 10, field.Type.Bits())
		if err != nil {
			return fmt.Errorf("invalid type for %s: %w", envTag, err)
		}

		value.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(envValue, field.Type.Bits())
		if err != nil {
			return fmt.Errorf("invalid type for %s: %w", envTag, err)
		}

		value.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(envValue)
		if err != nil {
			return fmt.Errorf("invalid type for %s: %w", envTag, err)
		}

		value.SetBool(b)
	default:
		return fmt.Errorf("%w: %s (%v)", ErrUnsupportedVarType, envTag, field.Type.Kind())
	}

	return nil
}
