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
Package badgerstore contains a persistent key-column-value store on top of
BadgerDB.

Every entry of a row is stored as a single badger key:

	uvarint(len(row)) row column -> value

The length prefix keeps rows apart so that all columns of a row form one
contiguous, column ordered key range.
*/
package badgerstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"devt.de/krotik/relgraph/storage"
	"github.com/dgraph-io/badger/v4"
	"golang.org/x/sync/errgroup"
)

/*
MaxParallelReads is the number of rows which are read in parallel by a
multi slice query.
*/
var MaxParallelReads = 8

/*
Config holds the options of a badger store.
*/
type Config struct {
	Path       string // Directory of the database files
	InMemory   bool   // Keep everything in memory (Path is ignored)
	SyncWrites bool   // Sync writes to disk before acknowledging them
}

/*
Store data structure
*/
type Store struct {
	name   string      // Name of the store
	db     *badger.DB  // Underlying database
	mutex  *sync.Mutex // Mutex to protect the closed flag
	closed bool        // Flag if the store was closed
}

/*
New opens a badger store.
*/
func New(name string, config Config) (*Store, error) {
	path := config.Path
	if config.InMemory {
		path = ""
	}

	opts := badger.DefaultOptions(path).
		WithInMemory(config.InMemory).
		WithSyncWrites(config.SyncWrites).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, storage.NewStoreError(storage.ErrPermanent, err.Error(), name)
	}

	return &Store{name, db, &sync.Mutex{}, false}, nil
}

/*
Name returns the name of the Store instance.
*/
func (s *Store) Name() string {
	return s.name
}

/*
GetSlice returns all entries of a row which fall into the given slice query.
*/
func (s *Store) GetSlice(ctx context.Context, key []byte, query storage.SliceQuery) (storage.EntryList, error) {
	var res storage.EntryList

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		res, err = readSlice(ctx, txn, key, query)
		return err
	})

	return res, s.convertError(err)
}

/*
GetMultiSlice executes the same slice query for several rows. All rows are
read from the same snapshot. A read-only transaction allows several
iterators so rows are read in parallel.
*/
func (s *Store) GetMultiSlice(ctx context.Context, keys [][]byte, query storage.SliceQuery) (map[string]storage.EntryList, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	results := make([]storage.EntryList, len(keys))

	err := s.db.View(func(txn *badger.Txn) error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(MaxParallelReads)

		for i, key := range keys {
			i, key := i, key

			g.Go(func() error {
				var err error
				results[i], err = readSlice(gctx, txn, key, query)
				return err
			})
		}

		return g.Wait()
	})

	if err != nil {
		return nil, s.convertError(err)
	}

	res := make(map[string]storage.EntryList, len(keys))
	for i, key := range keys {
		res[string(key)] = results[i]
	}

	return res, nil
}

/*
readSlice reads a slice of a single row inside a read transaction.
*/
func readSlice(ctx context.Context, txn *badger.Txn, key []byte, query storage.SliceQuery) (storage.EntryList, error) {
	var res storage.EntryList

	if query.IsEmpty() {
		return nil, nil
	}

	prefix := rowPrefix(key)

	var end []byte
	if query.End != nil {
		end = append(append([]byte{}, prefix...), query.End...)
	}

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	if query.HasLimit() && query.Limit < opts.PrefetchSize {
		opts.PrefetchSize = query.Limit
	}

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(append(append([]byte{}, prefix...), query.Start...)); it.ValidForPrefix(prefix); it.Next() {

		if len(res) >= query.Limit {
			break
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item := it.Item()
		k := item.KeyCopy(nil)

		if end != nil && bytes.Compare(k, end) >= 0 {
			break
		}

		v, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}

		res = append(res, storage.Entry{Column: k[len(prefix):], Value: v})
	}

	return res, nil
}

/*
MutateMany applies a set of row mutations. Large mutations are split into
several badger transactions.
*/
func (s *Store) MutateMany(ctx context.Context, mutations map[string]*storage.KeyMutation) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	txn := s.db.NewTransaction(true)
	defer func() {
		txn.Discard()
	}()

	apply := func(op func(*badger.Txn) error) error {
		err := op(txn)

		if errors.Is(err, badger.ErrTxnTooBig) {

			// Commit what we have and continue in a new transaction

			if err = txn.Commit(); err != nil {
				return err
			}

			txn = s.db.NewTransaction(true)
			err = op(txn)
		}

		return err
	}

	for row, m := range mutations {
		if err := ctx.Err(); err != nil {
			return err
		}

		prefix := rowPrefix([]byte(row))

		for _, col := range m.Deletions {
			k := append(append([]byte{}, prefix...), col...)
			if err := apply(func(txn *badger.Txn) error { return txn.Delete(k) }); err != nil {
				return s.convertError(err)
			}
		}

		for _, e := range m.Additions {
			k := append(append([]byte{}, prefix...), e.Column...)
			v := append([]byte{}, e.Value...)
			if err := apply(func(txn *badger.Txn) error { return txn.Set(k, v) }); err != nil {
				return s.convertError(err)
			}
		}
	}

	return s.convertError(txn.Commit())
}

/*
Close closes the store.
*/
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	return s.convertError(s.db.Close())
}

func (s *Store) checkOpen() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return storage.NewStoreError(storage.ErrClosed, "", s.name)
	}

	return nil
}

/*
convertError converts a badger error into a store error. Conflicts are
reported as temporary errors.
*/
func (s *Store) convertError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, badger.ErrConflict) {
		return storage.NewStoreError(storage.ErrTemporary, err.Error(), s.name)
	}

	if errors.Is(err, badger.ErrDBClosed) {
		return storage.NewStoreError(storage.ErrClosed, err.Error(), s.name)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return storage.NewStoreError(storage.ErrTemporary, err.Error(), s.name)
	}

	return storage.NewStoreError(storage.ErrPermanent, err.Error(), s.name)
}

/*
rowPrefix returns the key prefix of all entries of a row.
*/
func rowPrefix(row []byte) []byte {
	buf := make([]byte, binary.MaxVarintLen64+len(row))
	n := binary.PutUvarint(buf, uint64(len(row)))
	return append(buf[:n], row...)
}

/*
String returns a string representation of this store.
*/
func (s *Store) String() string {
	return fmt.Sprintf("BadgerStore %v", s.name)
}
