// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// IntFromString parses a base 10 int.
func IntFromString(r Reader[string]) Reader[int] {
	return Map(r, func(ctx context.Context, s string) (int, error) {
		return strconv.Atoi(strings.TrimSpace(s))
	})
}

// Int64FromString parses a base 10 int64.
func Int64FromString(r Reader[string]) Reader[int64] {
	return Map(r, func(ctx context.Context, s string) (int64, error) {
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	})
}

// Int32FromString parses a base 10 int32. Values outside the int32 range
// are an error.
func Int32FromString(r Reader[string]) Reader[int32] {
	return Map(r, func(ctx context.Context, s string) (int32, error) {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		return int32(n), err
	})
}

// Int16FromString parses a base 10 int16. Values outside the int16 range
// are an error.
func Int16FromString(r Reader[string]) Reader[int16] {
	return Map(r, func(ctx context.Context, s string) (int16, error) {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 16)
		return int16(n), err
	})
}

// Float64FromString parses a float64.
func Float64FromString(r Reader[string]) Reader[float64] {
	return Map(r, func(ctx context.Context, s string) (float64, error) {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	})
}

// BoolFromString parses a bool as accepted by [strconv.ParseBool].
func BoolFromString(r Reader[string]) Reader[bool] {
	return Map(r, func(ctx context.Context, s string) (bool, error) {
		return strconv.ParseBool(strings.TrimSpace(s))
	})
}

// DurationFromString parses a [time.Duration] such as "5s" or "1m30s".
func DurationFromString(r Reader[string]) Reader[time.Duration] {
	return Map(r, func(ctx context.Context, s string) (time.Duration, error) {
		return time.ParseDuration(strings.TrimSpace(s))
	})
}

// Split splits a string on sep, trimming whitespace and dropping empty
// entries. A value which contains no entries at all is treated as unset.
func Split(sep string, r Reader[string]) Reader[[]string] {
	return ReaderFunc[[]string](func(ctx context.Context) (Value[[]string], error) {
		v, err := r.Read(ctx)
		if err != nil {
			return Value[[]string]{}, err
		}

		s, ok := v.Value()
		if !ok {
			return Value[[]string]{}, nil
		}

		var parts []string
		for _, part := range strings.Split(s, sep) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			parts = append(parts, part)
		}
		if len(parts) == 0 {
			return Value[[]string]{}, nil
		}
		return ValueOf(parts), nil
	})
}
