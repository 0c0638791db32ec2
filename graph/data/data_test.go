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
	"errors"
	"fmt"
	"sync"
	"testing"

	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/graph/util"
	"devt.de/krotik/relgraph/storage"
)

type testVertex struct {
	id uint64
}

func (v *testVertex) ID() uint64      { return v.id }
func (v *testVertex) IsNew() bool     { return false }
func (v *testVertex) IsRemoved() bool { return false }

type testTx struct {
	schema       *schema.Manager
	nextID       uint64
	added        []Relation
	removed      map[uint64]bool
	replacements map[uint64]Relation
	entries      map[string]*RelationCache
	decodeCalls  int
	vertices     map[uint64]Vertex
}

func newTestTx(sm *schema.Manager) *testTx {
	return &testTx{sm, 100, nil, make(map[uint64]bool), make(map[uint64]Relation),
		make(map[string]*RelationCache), 0, make(map[uint64]Vertex)}
}

func (tx *testTx) IsSingleThreaded() bool { return false }

func (tx *testTx) NextRelationID() uint64 {
	tx.nextID++
	return tx.nextID
}

func (tx *testTx) AddRelation(r Relation) error {
	tx.added = append(tx.added, r)
	if r.PreviousID() != 0 {
		tx.replacements[r.PreviousID()] = r
	}
	return nil
}

func (tx *testTx) RemoveRelation(r Relation) error {
	if r.Lifecycle() == LifecycleLoaded {
		tx.removed[r.ID()] = true
	}
	for i, a := range tx.added {
		if a == r {
			tx.added = append(tx.added[:i], tx.added[i+1:]...)
			break
		}
	}
	return nil
}

func (tx *testTx) IsRemovedRelation(id uint64) bool {
	return tx.removed[id]
}

func (tx *testTx) HasModifications() bool {
	return len(tx.added) > 0 || len(tx.removed) > 0
}

func (tx *testTx) DecodeEntry(vertexID uint64, entry storage.Entry, headerOnly bool) (*RelationCache, error) {
	tx.decodeCalls++
	if rc, ok := tx.entries[string(entry.Column)]; ok {
		return rc, nil
	}
	return nil, fmt.Errorf("Unknown entry")
}

func (tx *testTx) Vertex(id uint64) Vertex {
	if v, ok := tx.vertices[id]; ok {
		return v
	}
	v := &testVertex{id}
	tx.vertices[id] = v
	return v
}

func (tx *testTx) RelationType(id uint64) schema.RelationType {
	return tx.schema.TypeByID(id)
}

func (tx *testTx) ReplacementOf(vertexID uint64, relationID uint64) Relation {
	return tx.replacements[relationID]
}

func testSchema(t *testing.T) *schema.Manager {
	sm := schema.NewManager(make(map[string]string))
	err := sm.LoadDefinitions([]byte(`
properties:
  - name: weight
    datatype: int
  - name: name
    datatype: string
edges:
  - name: rated
  - name: forked
    consistency: fork
`))
	if err != nil {
		t.Fatal(err)
	}
	return sm
}

func loadEdge(tx *testTx, label string, id uint64, weight int64) *CacheEdge {
	lt := tx.schema.Type(label)
	wk := tx.schema.PropertyKey("weight")

	entry := storage.Entry{Column: []byte(fmt.Sprint(label, id)), Value: nil}

	tx.entries[string(entry.Column)] = NewRelationCache(schema.Out, lt.ID(), id, uint64(2),
		map[uint64]interface{}{wk.ID(): weight})

	return NewCacheEdge(tx, 1, entry, NewRelationCache(schema.Out, lt.ID(), id, uint64(2), nil))
}

func TestCopyOnWrite(t *testing.T) {
	sm := testSchema(t)
	tx := newTestTx(sm)
	weight := sm.PropertyKey("weight")
	name := sm.PropertyKey("name")

	e := loadEdge(tx, "rated", 5, 3)

	if e.ID() != 5 || !e.HasID() || e.Lifecycle() != LifecycleLoaded || e.Arity() != 2 {
		t.Error("Unexpected edge state:", e)
		return
	}

	if res := fmt.Sprint(e.VertexID(0), e.VertexID(1), e.OtherVertexID(1), e.OtherVertexID(2)); res != "1 2 2 1" {
		t.Error("Unexpected result:", res)
		return
	}

	// Properties are decoded lazily and only once

	if tx.decodeCalls != 0 {
		t.Error("Entry should not have been decoded yet")
		return
	}

	if v, ok := e.Property(weight.ID()); v != int64(3) || !ok {
		t.Error("Unexpected result:", v, ok)
		return
	}

	e.Property(weight.ID())
	e.PropertyIDs()

	if tx.decodeCalls != 1 {
		t.Error("Unexpected decode calls:", tx.decodeCalls)
		return
	}

	// Mutation creates a replacement which keeps the id

	rep, err := e.SetProperty(weight, 7)
	if err != nil {
		t.Error(err)
		return
	}

	if rep == Relation(e) || rep.ID() != 5 || rep.PreviousID() != 5 || rep.Lifecycle() != LifecycleNew {
		t.Error("Unexpected replacement:", rep)
		return
	}

	if e.Lifecycle() != LifecycleLoadedRemoved || e.It() != rep {
		t.Error("Unexpected state of the original edge:", e.Lifecycle())
		return
	}

	// Reads and writes on the original edge are redirected

	if v, _ := e.Property(weight.ID()); v != int64(7) {
		t.Error("Unexpected result:", v)
		return
	}

	rep2, err := e.SetProperty(name, "foo")
	if err != nil || rep2 != rep || len(tx.added) != 1 {
		t.Error("Unexpected result:", rep2, err, tx.added)
		return
	}

	if res := fmt.Sprint(e.PropertyIDs()); res != fmt.Sprint([]uint64{weight.ID(), name.ID()}) {
		t.Error("Unexpected result:", res)
		return
	}

	if _, err := e.SetProperty(weight, "x"); !errors.Is(err, util.ErrInvalidData) {
		t.Error("Unexpected result:", err)
		return
	}

	rep3, err := e.RemoveProperty(name.ID())
	if _, ok := rep3.Property(name.ID()); ok || err != nil {
		t.Error("Unexpected result:", rep3, err)
		return
	}

	if res := rep.String(); res != "StandardEdge rated(1 -> 2)" {
		t.Error("Unexpected result:", res)
		return
	}
}

func TestCopyOnWriteFork(t *testing.T) {
	sm := testSchema(t)
	tx := newTestTx(sm)
	weight := sm.PropertyKey("weight")

	e := loadEdge(tx, "forked", 5, 3)

	rep, err := e.SetProperty(weight, 7)
	if err != nil {
		t.Error(err)
		return
	}

	// A forking type assigns a new id - old and new edge coexist

	if rep.ID() != 101 || rep.PreviousID() != 5 {
		t.Error("Unexpected replacement:", rep.ID(), rep.PreviousID())
		return
	}

	if e.ID() != 5 || e.Lifecycle() != LifecycleLoadedRemoved || rep.Lifecycle() != LifecycleNew {
		t.Error("Unexpected lifecycle states")
		return
	}

	if e.It() != rep {
		t.Error("Original edge should resolve to its replacement")
		return
	}

	// The snapshot itself was not changed

	if v, _ := e.relationCache().Property(weight.ID()); v != int64(3) {
		t.Error("Unexpected snapshot value:", v)
		return
	}

	if v, _ := rep.Property(weight.ID()); v != int64(7) {
		t.Error("Unexpected value:", v)
		return
	}
}

func TestRemovedCacheRelation(t *testing.T) {
	sm := testSchema(t)
	tx := newTestTx(sm)
	weight := sm.PropertyKey("weight")

	e := loadEdge(tx, "rated", 6, 3)

	if err := e.Remove(); err != nil {
		t.Error(err)
		return
	}

	if e.Lifecycle() != LifecycleLoadedRemoved || e.It() != Relation(e) {
		t.Error("Unexpected state")
		return
	}

	if _, err := e.SetProperty(weight, 1); !errors.Is(err, util.ErrInvalidState) {
		t.Error("Unexpected result:", err)
		return
	}

	if err := e.Remove(); !errors.Is(err, util.ErrInvalidState) {
		t.Error("Unexpected result:", err)
		return
	}

	// Stale reads still see the snapshot

	if v, _ := e.Property(weight.ID()); v != int64(3) {
		t.Error("Unexpected result:", v)
		return
	}
}

func TestCacheVertexProperty(t *testing.T) {
	sm := testSchema(t)
	tx := newTestTx(sm)
	name := sm.PropertyKey("name")
	weight := sm.PropertyKey("weight")

	entry := storage.Entry{Column: []byte("p1")}
	tx.entries["p1"] = NewRelationCache(schema.Out, name.ID(), 9, "bob", map[uint64]interface{}{weight.ID(): int64(1)})

	p := NewCacheVertexProperty(tx, 3, entry, tx.entries["p1"])

	if p.Value() != "bob" || p.VertexID(0) != 3 || p.Vertex(0).ID() != 3 || p.Arity() != 1 {
		t.Error("Unexpected property:", p)
		return
	}

	// Header with properties needs no further decoding

	if v, _ := p.Property(weight.ID()); v != int64(1) || tx.decodeCalls != 0 {
		t.Error("Unexpected result:", v, tx.decodeCalls)
		return
	}

	rep, err := p.SetProperty(weight, 2)
	if err != nil {
		t.Error(err)
		return
	}

	if rp, ok := rep.(VertexProperty); !ok || rp.Value() != "bob" || rep.ID() != 9 {
		t.Error("Unexpected replacement:", rep)
		return
	}

	if res := p.String(); res != "CacheVertexProperty name(3) = bob id:9" {
		t.Error("Unexpected result:", res)
		return
	}

	if d, err := DirectionOf(p, 3); d != schema.Out || err != nil {
		t.Error("Unexpected result:", d, err)
		return
	}

	if _, err := DirectionOf(p, 4); !errors.Is(err, util.ErrInvalidState) {
		t.Error("Unexpected result:", err)
		return
	}

	if OtherValue(p, 3) != "bob" || Category(p) != schema.CategoryProperty {
		t.Error("Unexpected other value or category")
		return
	}
}

func TestStandardRelations(t *testing.T) {
	sm := testSchema(t)
	tx := newTestTx(sm)
	weight := sm.PropertyKey("weight")

	v1, v2 := &testVertex{1}, &testVertex{2}

	e := NewStandardEdge(tx, sm.Type("rated"), v1, v2)

	if e.HasID() {
		t.Error("Ids should be assigned lazily")
		return
	}

	if !e.props.IsEmpty() {
		t.Error("Property storage should be empty")
		return
	}

	if _, err := e.SetProperty(weight, 1); err != nil || e.props.IsEmpty() {
		t.Error("Unexpected result:", err)
		return
	}

	if e.ID() != 101 || !e.HasID() || e.ID() != 101 {
		t.Error("Unexpected id:", e.ID())
		return
	}

	if d, _ := DirectionOf(e, 2); d != schema.In || e.OtherVertexID(2) != 1 || OtherValue(e, 1) != uint64(2) {
		t.Error("Unexpected direction")
		return
	}

	// Vertex positions outside of the arity are programming errors

	func() {
		defer func() {
			if r := recover(); r == nil || fmt.Sprint(r) != "Invalid edge position: 2" {
				t.Error("Unexpected panic:", r)
			}
		}()
		e.Vertex(2)
	}()

	tx.AddRelation(e)

	if err := e.Remove(); err != nil || e.Lifecycle() != LifecycleRemoved || len(tx.added) != 0 {
		t.Error("Unexpected result:", err, e.Lifecycle())
		return
	}

	if _, err := e.SetProperty(weight, 2); !errors.Is(err, util.ErrInvalidState) {
		t.Error("Unexpected result:", err)
		return
	}

	if err := e.Remove(); !errors.Is(err, util.ErrInvalidState) {
		t.Error("Unexpected result:", err)
		return
	}

	p := NewStandardVertexProperty(tx, sm.Type("name"), v1, "alice")
	p.MarkLoaded()

	if p.Lifecycle() != LifecycleLoaded || !p.Lifecycle().IsLoaded() || p.Lifecycle().IsRemoved() {
		t.Error("Unexpected lifecycle:", p.Lifecycle())
		return
	}

	if res := p.String(); res != "StandardVertexProperty name(1) = alice" {
		t.Error("Unexpected result:", res)
		return
	}
}

func TestSameRelation(t *testing.T) {
	sm := schema.NewManager(make(map[string]string))
	sm.LoadDefinitions([]byte(`
properties:
  - name: tag
    cardinality: set
  - name: nick
    cardinality: list
edges:
  - name: friend
    multiplicity: simple
  - name: knows
`))
	tx := newTestTx(sm)
	v1, v2 := &testVertex{1}, &testVertex{2}

	f1 := NewStandardEdge(tx, sm.Type("friend"), v1, v2)
	f2 := NewStandardEdge(tx, sm.Type("friend"), v1, v2)
	f3 := NewStandardEdge(tx, sm.Type("friend"), v2, v1)
	k1 := NewStandardEdge(tx, sm.Type("knows"), v1, v2)
	k2 := NewStandardEdge(tx, sm.Type("knows"), v1, v2)

	if !SameRelation(f1, f2) || SameRelation(f1, f3) || SameRelation(k1, k2) || !SameRelation(k1, k1) || SameRelation(f1, k1) {
		t.Error("Unexpected edge identity")
		return
	}

	t1 := NewStandardVertexProperty(tx, sm.Type("tag"), v1, "a")
	t2 := NewStandardVertexProperty(tx, sm.Type("tag"), v1, "a")
	t3 := NewStandardVertexProperty(tx, sm.Type("tag"), v1, "b")
	n1 := NewStandardVertexProperty(tx, sm.Type("nick"), v1, "a")
	n2 := NewStandardVertexProperty(tx, sm.Type("nick"), v1, "a")

	if !SameRelation(t1, t2) || SameRelation(t1, t3) || SameRelation(n1, n2) {
		t.Error("Unexpected property identity")
		return
	}
}

func TestPropertyStorage(t *testing.T) {
	ps := NewPropertyStorage(false)

	if !ps.IsEmpty() {
		t.Error("Storage should be empty")
		return
	}

	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ps.Set(uint64(i), i)
		}(i)
	}

	wg.Wait()

	if res := fmt.Sprint(ps.Keys()); res != "[0 1 2 3 4 5 6 7 8 9]" {
		t.Error("Unexpected result:", res)
		return
	}

	if v, ok := ps.Remove(3); v != 3 || !ok {
		t.Error("Unexpected result:", v, ok)
		return
	}

	if _, ok := ps.Get(3); ok {
		t.Error("Value should have been removed")
		return
	}

	ps = NewPropertyStorage(true)
	ps.Set(1, "a")

	if v, _ := ps.Get(1); v != "a" || ps.IsEmpty() {
		t.Error("Unexpected result:", v)
		return
	}
}
