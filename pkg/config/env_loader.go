/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"context"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/camshim/pkg/logger"
)

var (
	// ErrDstMustBeNonNilPointer indicates that the destination must be a non-nil pointer.
	ErrDstMustBeNonNilPointer = errors.New("dst must be a non-nil pointer")
	// ErrDstMustBePointerToStruct indicates that the destination must be a pointer to a struct.
	ErrDstMustBePointerToStruct = errors.New("dst must be a pointer to a struct")
)

//nolint:gochecknoglobals // reflect type handles
var (
	durationType        = reflect.TypeOf(time.Duration(0))
	jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// EnvConfigLoader loads configuration from environment variables named after
// the json tags of the destination, upper-cased and joined with underscores:
// with prefix CAMSHIM_, Config.NATS.URL (tags "nats", "url") reads
// CAMSHIM_NATS_URL. A complete JSON document in <prefix>CONFIG_JSON wins over
// individual variables.
type EnvConfigLoader struct {
	logger logger.Logger
	prefix string
	lookup func(string) (string, bool)
}

func NewEnvConfigLoader(log logger.Logger, prefix string) *EnvConfigLoader {
	return &EnvConfigLoader{
		logger: log,
		prefix: prefix,
		lookup: os.LookupEnv,
	}
}

func (e *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	if raw, ok := e.lookup(e.prefix + "CONFIG_JSON"); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			return fmt.Errorf("failed to unmarshal %sCONFIG_JSON: %w", e.prefix, err)
		}

		e.logger.Info().Msgf("Loaded configuration from %sCONFIG_JSON", e.prefix)

		return nil
	}

	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrDstMustBeNonNilPointer
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrDstMustBePointerToStruct
	}

	var errs []error

	e.loadStruct(v, e.prefix, &errs)

	if err := errors.Join(errs...); err != nil {
		return err
	}

	e.logger.Info().Msg("Loaded configuration from environment variables")

	return nil
}

func (e *EnvConfigLoader) loadStruct(v reflect.Value, prefix string, errs *[]error) {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		sf := t.Field(i)

		if !field.CanSet() {
			continue
		}

		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}

		envName := prefix + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))

		if err := e.loadField(field, envName, errs); err != nil {
			*errs = append(*errs, err)
		}
	}
}

func (e *EnvConfigLoader) loadField(field reflect.Value, envName string, errs *[]error) error {
	raw, ok := e.lookup(envName)
	if ok && raw != "" {
		if err := setFromString(field, raw); err != nil {
			return fmt.Errorf("%s: %w", envName, err)
		}

		e.logger.Debug().Str("env", envName).Msg("Loaded value from environment variable")

		return nil
	}

	// without a whole-value variable, descend into nested structs
	switch {
	case field.Kind() == reflect.Struct && !decodesItself(field.Type()):
		e.loadStruct(field, envName+"_", errs)
	case field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct:
		target := reflect.New(field.Type().Elem())
		if !field.IsNil() {
			target = field
		}

		before := len(*errs)
		e.loadStruct(target.Elem(), envName+"_", errs)

		if field.IsNil() && !target.Elem().IsZero() && len(*errs) == before {
			field.Set(target)
		}
	}

	return nil
}

func decodesItself(t reflect.Type) bool {
	p := reflect.PointerTo(t)

	return p.Implements(jsonUnmarshalerType) || p.Implements(textUnmarshalerType)
}

// setFromString parses raw into field. Scalars use strconv, durations
// time.ParseDuration, string slices a comma list; everything else,
// including types with their own UnmarshalJSON, is decoded as JSON.
func setFromString(field reflect.Value, raw string) error {
	if field.Type() == durationType || field.Type().ConvertibleTo(durationType) && field.Kind() == reflect.Int64 {
		if d, err := time.ParseDuration(raw); err == nil {
			field.SetInt(int64(d))

			return nil
		}
	}

	if field.Kind() != reflect.String && decodesItself(field.Type()) {
		return decodeJSONValue(field, raw)
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}

		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}

		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}

		field.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return err
		}

		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String && !strings.HasPrefix(strings.TrimSpace(raw), "[") {
			parts := strings.Split(raw, ",")
			out := reflect.MakeSlice(field.Type(), 0, len(parts))

			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					out = reflect.Append(out, reflect.ValueOf(p).Convert(field.Type().Elem()))
				}
			}

			field.Set(out)

			return nil
		}

		return decodeJSONValue(field, raw)
	default:
		return decodeJSONValue(field, raw)
	}

	return nil
}

func decodeJSONValue(field reflect.Value, raw string) error {
	target := reflect.New(field.Type())

	if err := json.Unmarshal([]byte(raw), target.Interface()); err != nil {
		// bare strings for string-backed types
		quoted, qerr := json.Marshal(raw)
		if qerr != nil || json.Unmarshal(quoted, target.Interface()) != nil {
			return fmt.Errorf("unsupported value for %s: %w", field.Type(), err)
		}
	}

	field.Set(target.Elem())

	return nil
}
