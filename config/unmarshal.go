// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Bytes returns a fresh [io.Reader] over b every time it is read.
func Bytes(b []byte) Reader[io.Reader] {
	return ReaderFunc[io.Reader](func(ctx context.Context) (Value[io.Reader], error) {
		return ValueOf[io.Reader](bytes.NewReader(b)), nil
	})
}

// File reads the whole file named by path. If path is unset, so is the result.
func File(path Reader[string]) Reader[io.Reader] {
	return Map(path, func(ctx context.Context, name string) (io.Reader, error) {
		b, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read file %s: %w", name, err)
		}
		return bytes.NewReader(b), nil
	})
}

// UnmarshalJSON decodes JSON from r into a T.
func UnmarshalJSON[T any](r Reader[io.Reader]) Reader[T] {
	return Map(r, func(ctx context.Context, src io.Reader) (T, error) {
		var t T
		err := json.NewDecoder(src).Decode(&t)
		return t, err
	})
}

// UnmarshalYAML decodes YAML from r into a T.
func UnmarshalYAML[T any](r Reader[io.Reader]) Reader[T] {
	return Map(r, func(ctx context.Context, src io.Reader) (T, error) {
		var t T
		err := yaml.NewDecoder(src).Decode(&t)
		return t, err
	})
}
