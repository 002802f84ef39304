package log

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ApplyOverride applies "key=value" strings using the same keys as the TOML
// file, then validates. Every bad override is reported, not just the first.
//
//	cfg := log.DefaultConfig()
//	err := cfg.ApplyOverride("level=warn", "enable_file=true", "directory=/var/log/ccerve")
func (c *Config) ApplyOverride(overrides ...string) error {
	fields := tomlFields(c)

	var errs []error
	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err == nil {
			err = applyConfigField(fields, key, value)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	switch len(errs) {
	case 0:
		return c.Validate()
	case 1:
		return errs[0]
	}

	var sb strings.Builder
	sb.WriteString("log: multiple configuration errors:")
	for i, err := range errs {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, strings.TrimPrefix(err.Error(), "log: "))
	}
	return fmt.Errorf("%s", sb.String())
}

// tomlFields maps toml tags to the settable fields of cfg
func tomlFields(cfg *Config) map[string]reflect.Value {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fields := make(map[string]reflect.Value, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("toml"); tag != "" {
			fields[tag] = v.Field(i)
		}
	}
	return fields
}

// applyConfigField parses value according to the field kind.
// "level" also accepts names such as "warn".
func applyConfigField(fields map[string]reflect.Value, key, value string) error {
	field, ok := fields[key]
	if !ok {
		return fmtErrorf("unknown config key in override: '%s'", key)
	}

	var typed any
	switch field.Kind() {
	case reflect.String:
		typed = value
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for %s '%s': %w", key, value, err)
		}
		typed = b
	case reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil && key == "level" {
			n, err = ParseLevel(value)
		}
		if err != nil {
			return fmtErrorf("invalid integer value for %s '%s': %w", key, value, err)
		}
		typed = n
	}

	if err := setFieldValue(field, typed); err != nil {
		return fmtErrorf("%s: %w", key, err)
	}
	return nil
}
