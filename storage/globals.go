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
Package storage contains the low-level API for data storage. Data is stored
as rows of columns (key-column-value). Each row is addressed by a key and
holds an ordered list of entries which are sorted by their column bytes. The
interface defines methods to read slices of a row, to read the same slice
of many rows in one call and to mutate rows. There are 3 implementations:

MemoryStore

A store which keeps all its data in memory (one btree per row) and provides
several error simulation facilities.

CachedStore

The CachedStore is a cache wrapper for any other Store. Its purpose is to
intercept slice reads and to maintain a cache of recent results. The cache is
limited in size by the number of cached slices. A mutation of a row drops all
cached slices of the row.

badgerstore.Store

A persistent store on top of BadgerDB (see sub package).
*/
package storage

import (
	"errors"
	"fmt"
)

/*
Common store related errors.
*/
var (
	ErrTemporary = errors.New("Temporary storage failure")
	ErrPermanent = errors.New("Permanent storage failure")
	ErrClosed    = errors.New("Store is closed")
)

/*
StoreError is a store related error.
*/
type StoreError struct {
	Type      error
	Detail    string
	Storename string
}

/*
NewStoreError returns a new Store specific error.
*/
func NewStoreError(seType error, seDetail string, seStorename string) *StoreError {
	return &StoreError{seType, seDetail, seStorename}
}

/*
Error returns a string representation of the error.
*/
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s (%s - %s)", e.Type.Error(), e.Storename, e.Detail)
}

/*
Is reports if the error has a given type.
*/
func (e *StoreError) Is(target error) bool {
	return e.Type == target
}

/*
IsTemporary returns true if the given error (or any error it wraps) is a
retryable store error. The query layer never retries itself.
*/
func IsTemporary(err error) bool {
	return errors.Is(err, ErrTemporary)
}
