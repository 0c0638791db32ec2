/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package graphstorage opens the key-column-value store of a graph.

The backend is selected by the StorageBackend configuration option: a memory
store which holds all rows in btrees or a disk store which is backed by
badger. Either backend can be wrapped by a slice cache (StoreCacheSize).
*/
package graphstorage

import (
	"fmt"

	"devt.de/krotik/relgraph/config"
	"devt.de/krotik/relgraph/graph/util"
	"devt.de/krotik/relgraph/storage"
)

/*
Open opens the store which is described by the current configuration.
*/
func Open(name string) (storage.Store, error) {
	var store storage.Store
	var err error

	if config.Config == nil {
		config.LoadDefaultConfig()
	}

	switch backend := config.Str(config.StorageBackend); backend {

	case config.BackendMemory:
		store = NewMemoryStorage(name)

	case config.BackendBadger:
		store, err = NewDiskStorage(name, config.Str(config.LocationDatastore))

	default:
		err = util.NewGraphError(util.ErrOpening, "Unknown storage backend: %v", backend)
	}

	if err != nil {
		return nil, err
	}

	if size := config.Int(config.StoreCacheSize); size > 0 {
		return WithCache(store, int(size))
	}

	return store, nil
}

/*
NewMemoryStorage creates a new memory-only store.
*/
func NewMemoryStorage(name string) storage.Store {
	return storage.NewMemoryStore(name)
}

/*
WithCache wraps a store into a slice cache.
*/
func WithCache(store storage.Store, size int) (storage.Store, error) {
	cs, err := storage.NewCachedStore(store, size)
	if err != nil {
		store.Close()
		return nil, &util.GraphError{Type: util.ErrOpening, Detail: fmt.Sprint(store.Name(), ": ", err), Cause: err}
	}

	return cs, nil
}
