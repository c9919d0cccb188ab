// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package item

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/z5labs/items/config"
)

//go:embed seed.yaml
var defaultSeed []byte

// DuplicateSeedError is returned when a seed lists the same id twice.
type DuplicateSeedError struct {
	ID int64
}

func (e DuplicateSeedError) Error() string {
	return fmt.Sprintf("item: seed contains duplicate id %d", e.ID)
}

// SeedFileFromEnv reads the seed file path from ITEMS_SEED_FILE.
func SeedFileFromEnv() config.Reader[string] {
	return config.Env("ITEMS_SEED_FILE")
}

// Seed reads the initial store contents from the YAML file named by path,
// falling back to the two built in catalogue items when path is unset.
func Seed(path config.Reader[string]) config.Reader[[]Item] {
	return config.ReaderFunc[[]Item](func(ctx context.Context) (config.Value[[]Item], error) {
		src := config.Or(
			config.File(path),
			config.Bytes(defaultSeed),
		)

		items, err := config.Read(ctx, config.UnmarshalYAML[[]Item](src))
		if err != nil {
			return config.Value[[]Item]{}, err
		}

		seen := make(map[int64]struct{}, len(items))
		for _, it := range items {
			if _, ok := seen[it.ID]; ok {
				return config.Value[[]Item]{}, DuplicateSeedError{ID: it.ID}
			}
			seen[it.ID] = struct{}{}
		}

		return config.ValueOf(items), nil
	})
}
