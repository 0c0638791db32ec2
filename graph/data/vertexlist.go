/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package data

import (
	"fmt"
	"sort"

	"devt.de/krotik/common/sortutil"
)

/*
VertexList is a list of vertices which keeps track if it is sorted by id.
*/
type VertexList interface {

	/*
		Add adds a vertex to the end of the list.
	*/
	Add(v Vertex)

	/*
		Get returns the vertex at a given position.
	*/
	Get(pos int) Vertex

	/*
		ID returns the id of the vertex at a given position.
	*/
	ID(pos int) uint64

	/*
		Size returns the number of vertices in the list.
	*/
	Size() int

	/*
		Sort sorts the list by vertex id.
	*/
	Sort()

	/*
		IsSorted returns if the list is known to be sorted by vertex id.
	*/
	IsSorted() bool

	/*
		AddAll adds all vertices of another list. Two sorted lists are merged,
		otherwise the other list is appended and the result is unsorted.
	*/
	AddAll(other VertexList)

	/*
		IDs returns the ids of all vertices in list order.
	*/
	IDs() []uint64

	/*
		ForEach calls a function for all vertices in list order until the
		function returns false.
	*/
	ForEach(f func(pos int, v Vertex) bool)
}

/*
VertexArrayList is a vertex list which holds vertex references.
*/
type VertexArrayList struct {
	vertices []Vertex // Vertices of the list
	sorted   bool     // Flag if the list is sorted
}

/*
NewVertexArrayList creates a new empty VertexArrayList.
*/
func NewVertexArrayList() *VertexArrayList {
	return &VertexArrayList{nil, true}
}

/*
Add adds a vertex to the end of the list.
*/
func (vl *VertexArrayList) Add(v Vertex) {
	if n := len(vl.vertices); n > 0 && vl.sorted {
		vl.sorted = vl.vertices[n-1].ID() <= v.ID()
	}
	vl.vertices = append(vl.vertices, v)
}

/*
Get returns the vertex at a given position.
*/
func (vl *VertexArrayList) Get(pos int) Vertex {
	return vl.vertices[pos]
}

/*
ID returns the id of the vertex at a given position.
*/
func (vl *VertexArrayList) ID(pos int) uint64 {
	return vl.vertices[pos].ID()
}

/*
Size returns the number of vertices in the list.
*/
func (vl *VertexArrayList) Size() int {
	return len(vl.vertices)
}

/*
Sort sorts the list by vertex id.
*/
func (vl *VertexArrayList) Sort() {
	if vl.sorted {
		return
	}

	sort.SliceStable(vl.vertices, func(i, j int) bool {
		return vl.vertices[i].ID() < vl.vertices[j].ID()
	})

	vl.sorted = true
}

/*
IsSorted returns if the list is known to be sorted by vertex id.
*/
func (vl *VertexArrayList) IsSorted() bool {
	return vl.sorted
}

/*
AddAll adds all vertices of another list.
*/
func (vl *VertexArrayList) AddAll(other VertexList) {
	if other.Size() == 0 {
		return
	}

	if !vl.sorted || !other.IsSorted() {
		for i := 0; i < other.Size(); i++ {
			vl.vertices = append(vl.vertices, other.Get(i))
		}
		vl.sorted = false
		return
	}

	// Linear merge of two sorted lists

	merged := make([]Vertex, 0, len(vl.vertices)+other.Size())

	i, j := 0, 0
	for i < len(vl.vertices) && j < other.Size() {
		if vl.vertices[i].ID() <= other.ID(j) {
			merged = append(merged, vl.vertices[i])
			i++
		} else {
			merged = append(merged, other.Get(j))
			j++
		}
	}

	merged = append(merged, vl.vertices[i:]...)
	for ; j < other.Size(); j++ {
		merged = append(merged, other.Get(j))
	}

	vl.vertices = merged
}

/*
IDs returns the ids of all vertices in list order.
*/
func (vl *VertexArrayList) IDs() []uint64 {
	res := make([]uint64, len(vl.vertices))
	for i, v := range vl.vertices {
		res[i] = v.ID()
	}
	return res
}

/*
ForEach calls a function for all vertices in list order.
*/
func (vl *VertexArrayList) ForEach(f func(pos int, v Vertex) bool) {
	for i, v := range vl.vertices {
		if !f(i, v) {
			return
		}
	}
}

/*
ToVertexLongList converts this list into a list of vertex ids.
*/
func (vl *VertexArrayList) ToVertexLongList(tx TxContext) *VertexLongList {
	return &VertexLongList{tx, vl.IDs(), vl.sorted}
}

/*
String returns a string representation of this list.
*/
func (vl *VertexArrayList) String() string {
	return fmt.Sprintf("VertexArrayList %v sorted:%v", vl.IDs(), vl.sorted)
}

/*
VertexLongList is a vertex list which holds vertex ids. Vertices are resolved
through the owning transaction when they are requested.
*/
type VertexLongList struct {
	tx     TxContext // Transaction to resolve vertices
	ids    []uint64  // Vertex ids of the list
	sorted bool      // Flag if the list is sorted
}

/*
NewVertexLongList creates a new empty VertexLongList.
*/
func NewVertexLongList(tx TxContext) *VertexLongList {
	return &VertexLongList{tx, nil, true}
}

/*
NewVertexLongListFromIDs creates a new VertexLongList from a list of ids.
*/
func NewVertexLongListFromIDs(tx TxContext, ids []uint64) *VertexLongList {
	res := &VertexLongList{tx, nil, true}
	for _, id := range ids {
		res.AddID(id)
	}
	return res
}

/*
Add adds a vertex to the end of the list.
*/
func (vl *VertexLongList) Add(v Vertex) {
	vl.AddID(v.ID())
}

/*
AddID adds a vertex id to the end of the list.
*/
func (vl *VertexLongList) AddID(id uint64) {
	if n := len(vl.ids); n > 0 && vl.sorted {
		vl.sorted = vl.ids[n-1] <= id
	}
	vl.ids = append(vl.ids, id)
}

/*
Get returns the vertex at a given position.
*/
func (vl *VertexLongList) Get(pos int) Vertex {
	return vl.tx.Vertex(vl.ids[pos])
}

/*
ID returns the id of the vertex at a given position.
*/
func (vl *VertexLongList) ID(pos int) uint64 {
	return vl.ids[pos]
}

/*
Size returns the number of vertices in the list.
*/
func (vl *VertexLongList) Size() int {
	return len(vl.ids)
}

/*
Sort sorts the list by vertex id.
*/
func (vl *VertexLongList) Sort() {
	if vl.sorted {
		return
	}

	sortutil.UInt64s(vl.ids)

	vl.sorted = true
}

/*
IsSorted returns if the list is known to be sorted by vertex id.
*/
func (vl *VertexLongList) IsSorted() bool {
	return vl.sorted
}

/*
AddAll adds all vertices of another list.
*/
func (vl *VertexLongList) AddAll(other VertexList) {
	if other.Size() == 0 {
		return
	}

	oids := other.IDs()

	if !vl.sorted || !other.IsSorted() {
		vl.ids = append(vl.ids, oids...)
		vl.sorted = false
		return
	}

	// Linear merge of two sorted lists

	merged := make([]uint64, 0, len(vl.ids)+len(oids))

	i, j := 0, 0
	for i < len(vl.ids) && j < len(oids) {
		if vl.ids[i] <= oids[j] {
			merged = append(merged, vl.ids[i])
			i++
		} else {
			merged = append(merged, oids[j])
			j++
		}
	}

	merged = append(merged, vl.ids[i:]...)
	merged = append(merged, oids[j:]...)

	vl.ids = merged
}

/*
IDs returns a copy of the ids of all vertices in list order.
*/
func (vl *VertexLongList) IDs() []uint64 {
	return append([]uint64(nil), vl.ids...)
}

/*
ForEach calls a function for all vertices in list order.
*/
func (vl *VertexLongList) ForEach(f func(pos int, v Vertex) bool) {
	for i, id := range vl.ids {
		if !f(i, vl.tx.Vertex(id)) {
			return
		}
	}
}

/*
ToVertexArrayList converts this list into a list of vertex references.
*/
func (vl *VertexLongList) ToVertexArrayList() *VertexArrayList {
	res := &VertexArrayList{make([]Vertex, len(vl.ids)), vl.sorted}
	for i, id := range vl.ids {
		res.vertices[i] = vl.tx.Vertex(id)
	}
	return res
}

/*
String returns a string representation of this list.
*/
func (vl *VertexLongList) String() string {
	return fmt.Sprintf("VertexLongList %v sorted:%v", vl.ids, vl.sorted)
}
