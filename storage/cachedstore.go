/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package storage

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

/*
CachedStore data structure
*/
type CachedStore struct {
	store      Store                              // Wrapped store
	mutex      *sync.Mutex                        // Mutex to protect cache and index operations
	cache      *lru.Cache[cacheKey, EntryList]    // Cache of slice results
	rows       map[string]map[cacheKey]SliceQuery // Index of cached queries per row
	gen        uint64                             // Counter of row mutations
	rowGens    map[string]uint64                  // Generation of the last mutation per row
	reads      int                                // Number of running reads from the wrapped store
	maxObjects int                                // Max number of slices which should be held in the cache
}

/*
cacheKey identifies a cached slice result.
*/
type cacheKey struct {
	row   string
	query string
}

/*
NewCachedStore creates a new cache wrapper for a Store. The cache holds at
most maxObjects slice results.
*/
func NewCachedStore(store Store, maxObjects int) (*CachedStore, error) {
	cs := &CachedStore{store, &sync.Mutex{}, nil,
		make(map[string]map[cacheKey]SliceQuery), 0, make(map[string]uint64), 0, maxObjects}

	// The eviction callback runs while the mutex is held by the caller

	cache, err := lru.NewWithEvict[cacheKey, EntryList](maxObjects, func(key cacheKey, _ EntryList) {
		cs.unindex(key)
	})
	if err != nil {
		return nil, NewStoreError(ErrPermanent, err.Error(), store.Name())
	}

	cs.cache = cache

	return cs, nil
}

/*
Name returns the name of the Store instance.
*/
func (cs *CachedStore) Name() string {
	return cs.store.Name()
}

/*
Store returns the wrapped store.
*/
func (cs *CachedStore) Store() Store {
	return cs.store
}

/*
GetSlice returns all entries of a row which fall into the given slice query.
*/
func (cs *CachedStore) GetSlice(ctx context.Context, key []byte, query SliceQuery) (EntryList, error) {

	if res, ok := cs.lookup(string(key), query); ok {
		CacheRequests.WithLabelValues(cs.Name(), "hit").Inc()
		return res, nil
	}

	CacheRequests.WithLabelValues(cs.Name(), "miss").Inc()

	gens := cs.beginRead(key)

	res, err := cs.store.GetSlice(ctx, key, query)

	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	if err == nil && cs.rowGens[string(key)] == gens[0] {
		cs.addToCache(string(key), query, res)
	}

	cs.endRead()

	return res, err
}

/*
GetMultiSlice executes the same slice query for several rows. Only rows which
are not in the cache are requested from the wrapped store.
*/
func (cs *CachedStore) GetMultiSlice(ctx context.Context, keys [][]byte, query SliceQuery) (map[string]EntryList, error) {
	var missing [][]byte

	res := make(map[string]EntryList, len(keys))

	for _, key := range keys {
		if el, ok := cs.lookup(string(key), query); ok {
			CacheRequests.WithLabelValues(cs.Name(), "hit").Inc()
			res[string(key)] = el
			continue
		}

		CacheRequests.WithLabelValues(cs.Name(), "miss").Inc()
		missing = append(missing, key)
	}

	if len(missing) == 0 {
		return res, nil
	}

	gens := cs.beginRead(missing...)

	fetched, err := cs.store.GetMultiSlice(ctx, missing, query)

	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	defer cs.endRead()

	if err != nil {
		return nil, err
	}

	for i, key := range missing {
		el := fetched[string(key)]
		res[string(key)] = el

		if cs.rowGens[string(key)] == gens[i] {
			cs.addToCache(string(key), query, el)
		}
	}

	return res, nil
}

/*
MutateMany applies a set of row mutations. All cached slices of the mutated
rows are dropped. Reads of these rows which overlap with the mutation are not
cached.
*/
func (cs *CachedStore) MutateMany(ctx context.Context, mutations map[string]*KeyMutation) error {

	cs.touchRows(mutations)

	err := cs.store.MutateMany(ctx, mutations)

	cs.touchRows(mutations)

	return err
}

/*
touchRows drops all cached slices of mutated rows and moves the rows to a new
generation if reads are running.
*/
func (cs *CachedStore) touchRows(mutations map[string]*KeyMutation) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.gen++

	for row := range mutations {
		cs.invalidateRow(row)

		if cs.reads > 0 {
			cs.rowGens[row] = cs.gen
		}
	}
}

/*
beginRead registers a read from the wrapped store and returns the current
generations of the read rows.
*/
func (cs *CachedStore) beginRead(keys ...[]byte) []uint64 {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	gens := make([]uint64, len(keys))
	for i, key := range keys {
		gens[i] = cs.rowGens[string(key)]
	}

	cs.reads++

	return gens
}

/*
endRead unregisters a read from the wrapped store. Row generations are only
needed while reads are running. Expects the mutex to be held.
*/
func (cs *CachedStore) endRead() {
	if cs.reads--; cs.reads == 0 && len(cs.rowGens) > 0 {
		cs.rowGens = make(map[string]uint64)
	}
}

/*
Close closes the wrapped store and empties the cache.
*/
func (cs *CachedStore) Close() error {
	cs.mutex.Lock()
	cs.cache.Purge()
	cs.mutex.Unlock()

	return cs.store.Close()
}

/*
lookup tries to answer a slice query from the cache. A cached slice can
answer a query if its range covers the query range and it either holds the
complete range or starts at the same column with a sufficient limit.
*/
func (cs *CachedStore) lookup(row string, query SliceQuery) (EntryList, bool) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	if el, ok := cs.cache.Get(cacheKey{row, query.Key()}); ok {
		return el, true
	}

	for ck, cq := range cs.rows[row] {
		if !cq.Subsumes(query.WithLimit(0)) {
			continue
		}

		el, ok := cs.cache.Get(ck)
		if !ok {
			continue
		}

		complete := len(el) < cq.Limit
		sameStart := string(cq.Start) == string(query.Start)

		if complete || (sameStart && cq.Limit >= query.Limit) {
			return el.Subset(query), true
		}
	}

	return nil, false
}

/*
addToCache adds a slice result to the cache. Expects the mutex to be held.
*/
func (cs *CachedStore) addToCache(row string, query SliceQuery, el EntryList) {
	ck := cacheKey{row, query.Key()}

	queries, ok := cs.rows[row]
	if !ok {
		queries = make(map[cacheKey]SliceQuery)
		cs.rows[row] = queries
	}

	queries[ck] = query

	cs.cache.Add(ck, el)
}

/*
invalidateRow drops all cached slices of a row. Expects the mutex to be held.
*/
func (cs *CachedStore) invalidateRow(row string) {
	for ck := range cs.rows[row] {
		cs.cache.Remove(ck)
		CacheInvalidations.WithLabelValues(cs.Name()).Inc()
	}

	delete(cs.rows, row)
}

/*
unindex removes a cache key from the row index. Called on eviction.
*/
func (cs *CachedStore) unindex(ck cacheKey) {
	if queries, ok := cs.rows[ck.row]; ok {
		delete(queries, ck)
		if len(queries) == 0 {
			delete(cs.rows, ck.row)
		}
	}
}

/*
Len returns the number of cached slices.
*/
func (cs *CachedStore) Len() int {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	return cs.cache.Len()
}
