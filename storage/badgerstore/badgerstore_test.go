/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"devt.de/krotik/relgraph/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(t *testing.T, s storage.Store, row string, n int) {
	m := &storage.KeyMutation{}
	for i := 0; i < n; i++ {
		m.Additions = append(m.Additions, storage.Entry{Column: []byte{byte(i * 2)}, Value: []byte(fmt.Sprint("v", i))})
	}
	require.NoError(t, s.MutateMany(context.Background(), map[string]*storage.KeyMutation{row: m}))
}

func TestBadgerStoreSlices(t *testing.T) {
	ctx := context.Background()

	s, err := New("test", Config{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "test", s.Name())

	fill(t, s, "row", 10)

	// A row which is a prefix of another row must not see its entries

	fill(t, s, "ro", 3)
	fill(t, s, "row\x00", 3)

	res, err := s.GetSlice(ctx, []byte("row"), storage.NewSliceQuery([]byte{3}, []byte{9}))
	require.NoError(t, err)
	assert.Equal(t, "[04->7632 06->7633 08->7634]", fmt.Sprint(res))

	res, err = s.GetSlice(ctx, []byte("row"), storage.NewSliceQuery(nil, nil))
	require.NoError(t, err)
	assert.Len(t, res, 10)

	res, err = s.GetSlice(ctx, []byte("row"), storage.NewSliceQuery([]byte{15}, nil).WithLimit(2))
	require.NoError(t, err)
	assert.Equal(t, "[10->7638 12->7639]", fmt.Sprint(res))

	res, err = s.GetSlice(ctx, []byte("row"), storage.NewSliceQuery([]byte{5}, []byte{5}))
	require.NoError(t, err)
	assert.Empty(t, res)

	multi, err := s.GetMultiSlice(ctx, [][]byte{[]byte("row"), []byte("ro"), []byte("nope")},
		storage.NewSliceQuery([]byte{2}, nil))
	require.NoError(t, err)
	assert.Len(t, multi["row"], 9)
	assert.Len(t, multi["ro"], 2)
	assert.Empty(t, multi["nope"])

	require.NoError(t, s.MutateMany(ctx, map[string]*storage.KeyMutation{
		"row": {Deletions: [][]byte{{0}, {2}}, Additions: []storage.Entry{{Column: []byte{2}, Value: []byte("x")}}},
	}))

	res, err = s.GetSlice(ctx, []byte("row"), storage.NewSliceQuery(nil, []byte{3}))
	require.NoError(t, err)
	assert.Equal(t, "[02->78]", fmt.Sprint(res))
}

func TestBadgerStoreClosed(t *testing.T) {
	ctx := context.Background()

	s, err := New("test", Config{InMemory: true})
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.GetSlice(ctx, []byte("row"), storage.NewSliceQuery(nil, nil))
	assert.True(t, errors.Is(err, storage.ErrClosed))

	_, err = s.GetMultiSlice(ctx, [][]byte{[]byte("row")}, storage.NewSliceQuery(nil, nil))
	assert.True(t, errors.Is(err, storage.ErrClosed))

	err = s.MutateMany(ctx, map[string]*storage.KeyMutation{})
	assert.True(t, errors.Is(err, storage.ErrClosed))
}

func TestBadgerStoreCancelled(t *testing.T) {
	s, err := New("test", Config{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	fill(t, s, "row", 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.GetSlice(ctx, []byte("row"), storage.NewSliceQuery(nil, nil))
	assert.True(t, storage.IsTemporary(err))
}

func TestRowPrefix(t *testing.T) {
	assert.Equal(t, []byte{3, 'a', 'b', 'c'}, rowPrefix([]byte("abc")))
	assert.Equal(t, []byte{0}, rowPrefix(nil))
}

func TestBadgerStoreMultiSliceSnapshot(t *testing.T) {
	ctx := context.Background()

	s, err := New("test", Config{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	write := func(i int) error {
		val := []byte(fmt.Sprint(i))
		return s.MutateMany(ctx, map[string]*storage.KeyMutation{
			"a": {Additions: []storage.Entry{{Column: []byte{0}, Value: val}}},
			"b": {Additions: []storage.Entry{{Column: []byte{0}, Value: val}}},
		})
	}

	require.NoError(t, write(0))

	done := make(chan error, 1)

	go func() {
		var err error
		for i := 1; i <= 200 && err == nil; i++ {
			err = write(i)
		}
		done <- err
	}()

	keys := [][]byte{[]byte("a"), []byte("b")}

	for running := true; running; {
		select {
		case err := <-done:
			require.NoError(t, err)
			running = false
		default:
		}

		multi, err := s.GetMultiSlice(ctx, keys, storage.NewSliceQuery(nil, nil))
		require.NoError(t, err)
		require.Len(t, multi["a"], 1)
		require.Len(t, multi["b"], 1)

		// Rows which were written together are read together

		require.Equal(t, string(multi["a"][0].Value), string(multi["b"][0].Value))
	}
}
