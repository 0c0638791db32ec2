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
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/google/btree"
)

/*
The row will not be accessible via GetSlice or GetMultiSlice
*/
const AccessGetError = 1

/*
The row will not be accessible via MutateMany
*/
const AccessMutateError = 2

/*
The row will produce a temporary error on GetSlice or GetMultiSlice
*/
const AccessTemporaryError = 3

/*
Degree of the btrees used for rows
*/
const memoryStoreDegree = 32

/*
MemoryStore data structure
*/
type MemoryStore struct {
	name   string                          // Name of the store
	rows   map[string]*btree.BTreeG[Entry] // Map of rows
	mutex  *sync.RWMutex                   // Mutex to protect map operations
	closed bool                            // Flag if the store was closed

	AccessMap  map[string]int // Special map to simulate access issues
	SliceCalls int            // Number of executed slice reads
}

/*
NewMemoryStore creates a new MemoryStore instance.
*/
func NewMemoryStore(name string) *MemoryStore {
	return &MemoryStore{name, make(map[string]*btree.BTreeG[Entry]),
		&sync.RWMutex{}, false, make(map[string]int), 0}
}

func entryLess(a, b Entry) bool {
	return bytes.Compare(a.Column, b.Column) < 0
}

/*
Name returns the name of the Store instance.
*/
func (ms *MemoryStore) Name() string {
	return ms.name
}

/*
GetSlice returns all entries of a row which fall into the given slice query.
*/
func (ms *MemoryStore) GetSlice(ctx context.Context, key []byte, query SliceQuery) (EntryList, error) {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	if ms.closed {
		return nil, NewStoreError(ErrClosed, "", ms.name)
	}

	ms.SliceCalls++

	return ms.getSlice(key, query)
}

/*
GetMultiSlice executes the same slice query for several rows.
*/
func (ms *MemoryStore) GetMultiSlice(ctx context.Context, keys [][]byte, query SliceQuery) (map[string]EntryList, error) {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	if ms.closed {
		return nil, NewStoreError(ErrClosed, "", ms.name)
	}

	ms.SliceCalls++

	res := make(map[string]EntryList, len(keys))

	for _, key := range keys {
		el, err := ms.getSlice(key, query)
		if err != nil {
			return nil, err
		}
		res[string(key)] = el
	}

	return res, nil
}

/*
getSlice reads a slice of a single row. Expects the mutex to be held.
*/
func (ms *MemoryStore) getSlice(key []byte, query SliceQuery) (EntryList, error) {

	switch ms.AccessMap[string(key)] {
	case AccessGetError:
		return nil, NewStoreError(ErrPermanent, fmt.Sprintf("Row: %q", key), ms.name)
	case AccessTemporaryError:
		return nil, NewStoreError(ErrTemporary, fmt.Sprintf("Row: %q", key), ms.name)
	}

	row, ok := ms.rows[string(key)]
	if !ok || query.IsEmpty() {
		return nil, nil
	}

	var res EntryList

	iter := func(e Entry) bool {
		if len(res) >= query.Limit {
			return false
		}
		res = append(res, Entry{copyBytes(e.Column), copyBytes(e.Value)})
		return true
	}

	if query.End == nil {
		row.AscendGreaterOrEqual(Entry{Column: query.Start}, iter)
	} else {
		row.AscendRange(Entry{Column: query.Start}, Entry{Column: query.End}, iter)
	}

	return res, nil
}

/*
MutateMany applies a set of row mutations.
*/
func (ms *MemoryStore) MutateMany(ctx context.Context, mutations map[string]*KeyMutation) error {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	if ms.closed {
		return NewStoreError(ErrClosed, "", ms.name)
	}

	// Check all rows first so a failing mutation leaves no partial changes

	for key := range mutations {
		if ms.AccessMap[key] == AccessMutateError {
			return NewStoreError(ErrPermanent, fmt.Sprintf("Row: %q", key), ms.name)
		}
	}

	for key, m := range mutations {
		row, ok := ms.rows[key]
		if !ok {
			row = btree.NewG[Entry](memoryStoreDegree, entryLess)
			ms.rows[key] = row
		}

		for _, col := range m.Deletions {
			row.Delete(Entry{Column: col})
		}

		for _, e := range m.Additions {
			row.ReplaceOrInsert(Entry{copyBytes(e.Column), copyBytes(e.Value)})
		}

		if row.Len() == 0 {
			delete(ms.rows, key)
		}
	}

	return nil
}

/*
RowCount returns the number of non-empty rows.
*/
func (ms *MemoryStore) RowCount() int {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	return len(ms.rows)
}

/*
Close closes the store.
*/
func (ms *MemoryStore) Close() error {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	ms.closed = true

	return nil
}

/*
String returns a string representation of this store.
*/
func (ms *MemoryStore) String() string {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("MemoryStore %v\n", ms.name))

	for key, row := range ms.rows {
		buf.WriteString(fmt.Sprintf("%q: %v entries\n", key, row.Len()))
	}

	return buf.String()
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	res := make([]byte, len(b))
	copy(res, b)
	return res
}
