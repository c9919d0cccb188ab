// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package event

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/z5labs/items/config"
	"github.com/z5labs/items/internal/item"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("will stamp a unique id and time", func(t *testing.T) {
		a := New(ItemDeleted, 1, nil)
		b := New(ItemDeleted, 1, nil)

		assert.NotEqual(t, uuid.Nil, a.ID)
		assert.NotEqual(t, a.ID, b.ID)
		assert.False(t, a.OccurredAt.IsZero())
	})

	t.Run("will omit the item when marshalling a delete", func(t *testing.T) {
		b, err := json.Marshal(New(ItemDeleted, 7, nil))
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(b, &m))
		assert.NotContains(t, m, "item")
		assert.Equal(t, "item.deleted", m["type"])
		assert.Equal(t, float64(7), m["item_id"])
	})

	t.Run("will include the item snapshot", func(t *testing.T) {
		it := item.Item{ID: 3, Name: "Lamp", Price: 25}

		b, err := json.Marshal(New(ItemCreated, it.ID, &it))
		require.NoError(t, err)

		var e Event
		require.NoError(t, json.Unmarshal(b, &e))
		require.NotNil(t, e.Item)
		assert.Equal(t, it, *e.Item)
	})
}

func TestBuild(t *testing.T) {
	t.Run("will return Discard", func(t *testing.T) {
		t.Run("if no brokers are configured", func(t *testing.T) {
			pub, err := Build(Config{
				Brokers: config.EmptyReader[[]string](),
			}).Build(context.Background())
			require.NoError(t, err)

			assert.IsType(t, Discard{}, pub)
		})

		t.Run("if ITEMS_KAFKA_BROKERS only has separators", func(t *testing.T) {
			t.Setenv("ITEMS_KAFKA_BROKERS", " , ,")

			pub, err := Build(ConfigFromEnv()).Build(context.Background())
			require.NoError(t, err)

			assert.IsType(t, Discard{}, pub)
		})
	})
}

func TestConfigFromEnv(t *testing.T) {
	t.Run("will fail the build", func(t *testing.T) {
		testCases := []struct {
			Name  string
			Env   string
			Value string
		}{
			{Name: "if the partition count overflows int32", Env: "ITEMS_KAFKA_PARTITIONS", Value: "3000000000"},
			{Name: "if the replication factor overflows int16", Env: "ITEMS_KAFKA_REPLICATION_FACTOR", Value: "70000"},
			{Name: "if the partition count is not a number", Env: "ITEMS_KAFKA_PARTITIONS", Value: "many"},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				t.Setenv("ITEMS_KAFKA_BROKERS", "localhost:1")
				t.Setenv(testCase.Env, testCase.Value)

				_, err := Build(ConfigFromEnv()).Build(context.Background())

				var numErr *strconv.NumError
				require.ErrorAs(t, err, &numErr)
			})
		}
	})

	t.Run("will read in range values", func(t *testing.T) {
		t.Setenv("ITEMS_KAFKA_PARTITIONS", "12")
		t.Setenv("ITEMS_KAFKA_REPLICATION_FACTOR", "3")

		cfg := ConfigFromEnv()
		ctx := context.Background()

		partitions, err := config.Read(ctx, cfg.Partitions)
		require.NoError(t, err)
		assert.Equal(t, int32(12), partitions)

		replicationFactor, err := config.Read(ctx, cfg.ReplicationFactor)
		require.NoError(t, err)
		assert.Equal(t, int16(3), replicationFactor)
	})
}

func TestDiscard(t *testing.T) {
	t.Run("will always be healthy and never fail", func(t *testing.T) {
		var pub Publisher = Discard{}
		ctx := context.Background()

		require.NoError(t, pub.Publish(ctx, New(ItemCreated, 1, nil)))

		healthy, err := pub.Healthy(ctx)
		require.NoError(t, err)
		assert.True(t, healthy)

		require.NoError(t, pub.Close(ctx))
	})
}
