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
	"fmt"
	"testing"
)

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore("test")
	cs, err := NewCachedStore(ms, 3)
	if err != nil {
		t.Error(err)
		return
	}

	if cs.Name() != "test" || cs.Store() != ms {
		t.Error("Unexpected wrapped store")
		return
	}

	fillStore(t, cs, "row1", 10)

	q := NewSliceQuery([]byte{2}, []byte{12})

	res, _ := cs.GetSlice(ctx, []byte("row1"), q)
	if len(res) != 5 || ms.SliceCalls != 1 {
		t.Error("Unexpected result:", res, ms.SliceCalls)
		return
	}

	// Second request is served from the cache

	res, _ = cs.GetSlice(ctx, []byte("row1"), q)
	if len(res) != 5 || ms.SliceCalls != 1 {
		t.Error("Unexpected result:", res, ms.SliceCalls)
		return
	}

	// A narrower query can be answered from the complete cached slice

	res, _ = cs.GetSlice(ctx, []byte("row1"), NewSliceQuery([]byte{4}, []byte{8}))
	if fmt.Sprint(res) != "[04->7632 06->7633]" || ms.SliceCalls != 1 {
		t.Error("Unexpected result:", res, ms.SliceCalls)
		return
	}

	// A truncated slice can only answer queries with the same start

	res, _ = cs.GetSlice(ctx, []byte("row1"), NewSliceQuery([]byte{14}, nil).WithLimit(2))
	if fmt.Sprint(res) != "[0e->7637 10->7638]" || ms.SliceCalls != 2 {
		t.Error("Unexpected result:", res, ms.SliceCalls)
		return
	}

	res, _ = cs.GetSlice(ctx, []byte("row1"), NewSliceQuery([]byte{14}, nil).WithLimit(1))
	if fmt.Sprint(res) != "[0e->7637]" || ms.SliceCalls != 2 {
		t.Error("Unexpected result:", res, ms.SliceCalls)
		return
	}

	res, _ = cs.GetSlice(ctx, []byte("row1"), NewSliceQuery([]byte{16}, nil).WithLimit(1))
	if fmt.Sprint(res) != "[10->7638]" || ms.SliceCalls != 3 {
		t.Error("Unexpected result:", res, ms.SliceCalls)
		return
	}

	// Mutations drop all cached slices of a row

	if err := cs.MutateMany(ctx, map[string]*KeyMutation{"row1": {Deletions: [][]byte{{4}}}}); err != nil {
		t.Error(err)
		return
	}

	if cs.Len() != 0 {
		t.Error("Unexpected cache size:", cs.Len())
		return
	}

	res, _ = cs.GetSlice(ctx, []byte("row1"), q)
	if len(res) != 4 || ms.SliceCalls != 4 {
		t.Error("Unexpected result:", res, ms.SliceCalls)
		return
	}

	// Multi slice reads only fetch missing rows

	fillStore(t, cs, "row2", 2)

	multi, err := cs.GetMultiSlice(ctx, [][]byte{[]byte("row1"), []byte("row2")}, q)
	if err != nil || len(multi["row1"]) != 4 || len(multi["row2"]) != 1 || ms.SliceCalls != 5 {
		t.Error("Unexpected result:", multi, err, ms.SliceCalls)
		return
	}

	multi, _ = cs.GetMultiSlice(ctx, [][]byte{[]byte("row1"), []byte("row2")}, q)
	if len(multi["row1"]) != 4 || len(multi["row2"]) != 1 || ms.SliceCalls != 5 {
		t.Error("Unexpected result:", multi, ms.SliceCalls)
		return
	}

	// Errors are not cached

	ms.AccessMap["row3"] = AccessTemporaryError

	if _, err := cs.GetSlice(ctx, []byte("row3"), q); !IsTemporary(err) {
		t.Error("Unexpected result:", err)
		return
	}

	if _, err := cs.GetMultiSlice(ctx, [][]byte{[]byte("row3")}, q); !IsTemporary(err) {
		t.Error("Unexpected result:", err)
		return
	}

	if cs.Len() != 2 {
		t.Error("Unexpected cache size:", cs.Len())
		return
	}

	cs.Close()

	if cs.Len() != 0 {
		t.Error("Unexpected cache size:", cs.Len())
		return
	}
}

func TestCachedStoreEviction(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore("test")
	cs, _ := NewCachedStore(ms, 2)

	for i := 0; i < 4; i++ {
		cs.GetSlice(ctx, []byte(fmt.Sprint("row", i)), NewSliceQuery(nil, nil))
	}

	if cs.Len() != 2 || len(cs.rows) != 2 {
		t.Error("Unexpected cache state:", cs.Len(), len(cs.rows))
		return
	}

	if _, err := NewCachedStore(ms, 0); err == nil {
		t.Error("Expected error for invalid cache size")
		return
	}
}

/*
interleavedStore runs a function after a read from the store has finished
and before the result is returned.
*/
type interleavedStore struct {
	*MemoryStore
	during func()
}

func (is *interleavedStore) interleave() {
	if f := is.during; f != nil {
		is.during = nil
		f()
	}
}

func (is *interleavedStore) GetSlice(ctx context.Context, key []byte, query SliceQuery) (EntryList, error) {
	res, err := is.MemoryStore.GetSlice(ctx, key, query)
	is.interleave()
	return res, err
}

func (is *interleavedStore) GetMultiSlice(ctx context.Context, keys [][]byte, query SliceQuery) (map[string]EntryList, error) {
	res, err := is.MemoryStore.GetMultiSlice(ctx, keys, query)
	is.interleave()
	return res, err
}

func TestCachedStoreConcurrentMutation(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore("test")
	is := &interleavedStore{MemoryStore: ms}
	cs, _ := NewCachedStore(is, 10)

	fillStore(t, cs, "row1", 2)
	fillStore(t, cs, "row2", 2)

	addColumn := func(col byte) func() {
		return func() {
			if err := cs.MutateMany(ctx, map[string]*KeyMutation{
				"row1": {Additions: []Entry{{[]byte{col}, []byte("x")}}},
			}); err != nil {
				t.Error(err)
			}
		}
	}

	q := NewSliceQuery(nil, nil)

	// A result which was read before a mutation is returned but not cached

	is.during = addColumn(1)

	if res, _ := cs.GetSlice(ctx, []byte("row1"), q); len(res) != 2 || cs.Len() != 0 {
		t.Error("Unexpected result:", res, cs.Len())
		return
	}

	// Only the mutated row of a multi slice read is not cached

	is.during = addColumn(3)

	multi, err := cs.GetMultiSlice(ctx, [][]byte{[]byte("row1"), []byte("row2")}, q)
	if err != nil || len(multi["row1"]) != 3 || len(multi["row2"]) != 2 || cs.Len() != 1 {
		t.Error("Unexpected result:", multi, err, cs.Len())
		return
	}

	calls := ms.SliceCalls

	multi, _ = cs.GetMultiSlice(ctx, [][]byte{[]byte("row1"), []byte("row2")}, q)
	if len(multi["row1"]) != 4 || len(multi["row2"]) != 2 || ms.SliceCalls != calls+1 || cs.Len() != 2 {
		t.Error("Unexpected result:", multi, ms.SliceCalls-calls, cs.Len())
		return
	}

	// Row generations are dropped once no read is running

	if len(cs.rowGens) != 0 || cs.reads != 0 {
		t.Error("Unexpected cache state:", cs.rowGens, cs.reads)
		return
	}
}
