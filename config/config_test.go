// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnv(t *testing.T) {
	t.Run("will return an unset value", func(t *testing.T) {
		t.Run("if the env var is not set", func(t *testing.T) {
			v, err := Env("ITEMS_CONFIG_TEST_UNSET").Read(context.Background())
			if !assert.Nil(t, err) {
				return
			}

			_, ok := v.Value()
			if !assert.False(t, ok) {
				return
			}
		})

		t.Run("if the env var is empty", func(t *testing.T) {
			t.Setenv("ITEMS_CONFIG_TEST_EMPTY", "")

			v, err := Env("ITEMS_CONFIG_TEST_EMPTY").Read(context.Background())
			if !assert.Nil(t, err) {
				return
			}

			_, ok := v.Value()
			if !assert.False(t, ok) {
				return
			}
		})
	})

	t.Run("will return the env var value", func(t *testing.T) {
		t.Setenv("ITEMS_CONFIG_TEST_SET", "hello")

		s, err := Read(context.Background(), Env("ITEMS_CONFIG_TEST_SET"))
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, "hello", s) {
			return
		}
	})
}

func TestOr(t *testing.T) {
	t.Run("will return the first set value", func(t *testing.T) {
		r := Or(EmptyReader[int](), nil, ReaderOf(2), ReaderOf(3))

		n, err := Read(context.Background(), r)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, 2, n) {
			return
		}
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if a reader fails before a value is found", func(t *testing.T) {
			readErr := errors.New("failed")
			r := Or(
				ReaderFunc[int](func(ctx context.Context) (Value[int], error) {
					return Value[int]{}, readErr
				}),
				ReaderOf(2),
			)

			_, err := Read(context.Background(), r)
			if !assert.ErrorIs(t, err, readErr) {
				return
			}
		})
	})
}

func TestRead(t *testing.T) {
	t.Run("will return ErrValueNotSet", func(t *testing.T) {
		t.Run("if the reader is nil", func(t *testing.T) {
			_, err := Read[int](context.Background(), nil)
			if !assert.ErrorIs(t, err, ErrValueNotSet) {
				return
			}
		})

		t.Run("if the reader has no value", func(t *testing.T) {
			_, err := Read(context.Background(), EmptyReader[string]())
			if !assert.ErrorIs(t, err, ErrValueNotSet) {
				return
			}
		})
	})
}

func TestMust(t *testing.T) {
	t.Run("will panic", func(t *testing.T) {
		t.Run("if the value is not set", func(t *testing.T) {
			assert.Panics(t, func() {
				Must(context.Background(), EmptyReader[int]())
			})
		})
	})
}

func TestMustOr(t *testing.T) {
	t.Run("will return the default", func(t *testing.T) {
		t.Run("if the reader is nil", func(t *testing.T) {
			n := MustOr[int](context.Background(), 5, nil)
			if !assert.Equal(t, 5, n) {
				return
			}
		})

		t.Run("if the reader has no value", func(t *testing.T) {
			n := MustOr(context.Background(), 5, EmptyReader[int]())
			if !assert.Equal(t, 5, n) {
				return
			}
		})
	})

	t.Run("will panic", func(t *testing.T) {
		t.Run("if the value can not be parsed", func(t *testing.T) {
			assert.Panics(t, func() {
				MustOr(context.Background(), 5, IntFromString(ReaderOf("five")))
			})
		})
	})
}

func TestConversions(t *testing.T) {
	ctx := context.Background()

	n, err := Read(ctx, IntFromString(ReaderOf(" 42 ")))
	require.NoError(t, err)
	require.Equal(t, 42, n)

	n64, err := Read(ctx, Int64FromString(ReaderOf("9000000000")))
	require.NoError(t, err)
	require.Equal(t, int64(9000000000), n64)

	n32, err := Read(ctx, Int32FromString(ReaderOf("-1")))
	require.NoError(t, err)
	require.Equal(t, int32(-1), n32)

	_, err = Read(ctx, Int32FromString(ReaderOf("3000000000")))
	require.ErrorIs(t, err, strconv.ErrRange)

	n16, err := Read(ctx, Int16FromString(ReaderOf("3")))
	require.NoError(t, err)
	require.Equal(t, int16(3), n16)

	_, err = Read(ctx, Int16FromString(ReaderOf("70000")))
	require.ErrorIs(t, err, strconv.ErrRange)

	f, err := Read(ctx, Float64FromString(ReaderOf("0.25")))
	require.NoError(t, err)
	require.Equal(t, 0.25, f)

	b, err := Read(ctx, BoolFromString(ReaderOf("true")))
	require.NoError(t, err)
	require.True(t, b)

	d, err := Read(ctx, DurationFromString(ReaderOf("1m30s")))
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, d)

	_, err = Read(ctx, DurationFromString(EmptyReader[string]()))
	require.ErrorIs(t, err, ErrValueNotSet)
}

func TestSplit(t *testing.T) {
	t.Run("will return an unset value", func(t *testing.T) {
		t.Run("if every entry is blank", func(t *testing.T) {
			_, err := Read(context.Background(), Split(",", ReaderOf(" , ,")))
			if !assert.ErrorIs(t, err, ErrValueNotSet) {
				return
			}
		})
	})
}

func TestFile(t *testing.T) {
	t.Run("will return an unset value", func(t *testing.T) {
		t.Run("if the path is not set", func(t *testing.T) {
			_, err := Read(context.Background(), File(EmptyReader[string]()))
			if !assert.ErrorIs(t, err, ErrValueNotSet) {
				return
			}
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the file does not exist", func(t *testing.T) {
			name := filepath.Join(t.TempDir(), "missing.yaml")

			_, err := Read(context.Background(), File(ReaderOf(name)))
			if !assert.ErrorIs(t, err, os.ErrNotExist) {
				return
			}
		})
	})

	t.Run("will decode the file contents", func(t *testing.T) {
		name := filepath.Join(t.TempDir(), "cfg.yaml")
		err := os.WriteFile(name, []byte("port: 9000\n"), 0o600)
		require.NoError(t, err)

		type cfg struct {
			Port int `yaml:"port"`
		}

		c, err := Read(context.Background(), UnmarshalYAML[cfg](File(ReaderOf(name))))
		require.NoError(t, err)
		require.Equal(t, 9000, c.Port)
	})
}
