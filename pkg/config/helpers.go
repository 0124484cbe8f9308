package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cperrin88/assetmirror/pkg/errors"
)

// EnvPrefix prefixes the environment variables that override settings, e.g.
// ASSETMIRROR_ORIGIN or ASSETMIRROR_HTTP_TIMEOUT.
const EnvPrefix = "ASSETMIRROR_"

// SetValue sets a setting by its YAML key. Durations use time.ParseDuration syntax and
// trim_prefixes is a comma-separated list.
func (c *Config) SetValue(key, value string) error {
	field, ok := settingField(&c.Settings, key)
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrUnknownConfigKey, key)
	}

	switch field.Interface().(type) {
	case string:
		field.SetString(value)
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %s", key, value)
		}
		field.SetBool(b)
	case int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %s", key, value)
		}
		field.SetInt(int64(n))
	case time.Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %s", key, value)
		}
		field.SetInt(int64(d))
	case []string:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("%w: %s", errors.ErrUnknownConfigKey, key)
	}
	return nil
}

// GetValue returns a setting by its YAML key, formatted the way SetValue accepts it.
func (c *Config) GetValue(key string) (string, error) {
	field, ok := settingField(&c.Settings, key)
	if !ok {
		return "", fmt.Errorf("%w: %s", errors.ErrUnknownConfigKey, key)
	}
	return formatValue(field), nil
}

// Keys lists every setting key in declaration order.
func Keys() []string {
	t := reflect.TypeOf(Settings{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if key := yamlKey(t.Field(i)); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// ToMap returns every setting as a string. This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)
	for _, key := range Keys() {
		field, _ := settingField(&c.Settings, key)
		result[key] = formatValue(field)
	}
	return result
}

// ApplyEnv overrides settings from ASSETMIRROR_<KEY> variables and re-validates.
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, key := range Keys() {
		value, ok := lookup(EnvPrefix + strings.ToUpper(key))
		if !ok {
			continue
		}
		if err := c.SetValue(key, value); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, strings.ToUpper(key), err)
		}
	}
	if token, ok := lookup(EnvPrefix + "ORIGIN_TOKEN"); ok && token != "" {
		c.OriginAuth = &AuthConfig{BearerAuth: &BearerAuth{Token: token}}
	}
	return c.Validate()
}

func settingField(s *Settings, key string) (reflect.Value, bool) {
	v := reflect.ValueOf(s).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if yamlKey(t.Field(i)) == key {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func yamlKey(field reflect.StructField) string {
	tag := field.Tag.Get("yaml")
	if tag == "" || tag == "-" {
		return ""
	}
	return strings.Split(tag, ",")[0]
}

func formatValue(field reflect.Value) string {
	switch v := field.Interface().(type) {
	case time.Duration:
		return v.String()
	case []string:
		return strings.Join(v, ",")
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
