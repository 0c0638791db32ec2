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
	"encoding/hex"
	"fmt"
	"math"
)

/*
NoLimit is the limit value of a slice query which has no limit.
*/
const NoLimit = math.MaxInt32

/*
Store interface models a key-column-value backend.
*/
type Store interface {

	/*
		Name returns the name of the Store instance.
	*/
	Name() string

	/*
		GetSlice returns all entries of a row which fall into the column range
		of the given slice query. Entries are returned in ascending column
		order and the result holds at most query.Limit entries.
	*/
	GetSlice(ctx context.Context, key []byte, query SliceQuery) (EntryList, error)

	/*
		GetMultiSlice executes the same slice query for several rows in one
		call. The result is keyed by string(key).
	*/
	GetMultiSlice(ctx context.Context, keys [][]byte, query SliceQuery) (map[string]EntryList, error)

	/*
		MutateMany applies a set of row mutations. The mutation map is keyed by
		string(key). Deletions of a row are applied before its additions.
	*/
	MutateMany(ctx context.Context, mutations map[string]*KeyMutation) error

	/*
		Close closes the store.
	*/
	Close() error
}

/*
Entry is a single column of a row.
*/
type Entry struct {
	Column []byte // Column bytes - defines the order of entries
	Value  []byte // Value bytes
}

/*
String returns a string representation of this entry.
*/
func (e Entry) String() string {
	return fmt.Sprintf("%v->%v", hex.EncodeToString(e.Column), hex.EncodeToString(e.Value))
}

/*
EntryList is an ordered list of entries.
*/
type EntryList []Entry

/*
Subset returns all entries of the list which are inside the range of the
given query. At most query.Limit entries are returned.
*/
func (el EntryList) Subset(query SliceQuery) EntryList {
	var res EntryList

	for _, e := range el {
		if len(res) >= query.Limit {
			break
		}
		if query.Contains(e.Column) {
			res = append(res, e)
		}
	}

	return res
}

/*
SliceQuery describes a half open column range [Start, End) with a result
limit. A nil End means the range is unbounded at the end.
*/
type SliceQuery struct {
	Start []byte
	End   []byte
	Limit int
}

/*
NewSliceQuery creates a new slice query without a limit.
*/
func NewSliceQuery(start []byte, end []byte) SliceQuery {
	return SliceQuery{start, end, NoLimit}
}

/*
HasLimit returns if this query has a limit.
*/
func (q SliceQuery) HasLimit() bool {
	return q.Limit != NoLimit
}

/*
WithLimit returns a copy of this query with a different limit.
*/
func (q SliceQuery) WithLimit(limit int) SliceQuery {
	return SliceQuery{q.Start, q.End, limit}
}

/*
IsEmpty returns if the range of this query cannot contain any column.
*/
func (q SliceQuery) IsEmpty() bool {
	return q.Limit <= 0 || (q.End != nil && bytes.Compare(q.Start, q.End) >= 0)
}

/*
Contains returns if a given column is inside the range of this query.
*/
func (q SliceQuery) Contains(column []byte) bool {
	return bytes.Compare(q.Start, column) <= 0 && (q.End == nil || bytes.Compare(column, q.End) < 0)
}

/*
Subsumes returns true if the result of the other query can be computed from
the result of this query.
*/
func (q SliceQuery) Subsumes(other SliceQuery) bool {
	if bytes.Compare(q.Start, other.Start) > 0 {
		return false
	}

	if q.End != nil && (other.End == nil || bytes.Compare(other.End, q.End) > 0) {
		return false
	}

	return q.Limit >= other.Limit
}

/*
SameRange returns if this query covers the same range as the other query.
*/
func (q SliceQuery) SameRange(other SliceQuery) bool {
	return bytes.Equal(q.Start, other.Start) && bytes.Equal(q.End, other.End) &&
		(q.End == nil) == (other.End == nil)
}

/*
Key returns a string which identifies this query.
*/
func (q SliceQuery) Key() string {
	end := "*"
	if q.End != nil {
		end = hex.EncodeToString(q.End)
	}
	return fmt.Sprintf("%v:%v:%v", hex.EncodeToString(q.Start), end, q.Limit)
}

/*
String returns a string representation of this query.
*/
func (q SliceQuery) String() string {
	limit := "none"
	if q.HasLimit() {
		limit = fmt.Sprint(q.Limit)
	}

	end := "-"
	if q.End != nil {
		end = hex.EncodeToString(q.End)
	}

	return fmt.Sprintf("[%v, %v) limit:%v", hex.EncodeToString(q.Start), end, limit)
}

/*
KeyMutation holds the pending changes of a single row.
*/
type KeyMutation struct {
	Additions []Entry
	Deletions [][]byte
}

/*
IsEmpty returns if this mutation has no changes.
*/
func (km *KeyMutation) IsEmpty() bool {
	return len(km.Additions) == 0 && len(km.Deletions) == 0
}

/*
PrefixEnd returns the smallest byte slice which is larger than all byte
slices starting with the given prefix. Returns nil if no such slice exists
(the prefix consists only of 0xff bytes).
*/
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)

	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}

	return nil
}
