/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package schema

import (
	"errors"
	"fmt"
	"testing"

	"devt.de/krotik/relgraph/graph/util"
)

const testDefinitions = `
properties:
  - name: age
    datatype: int
  - name: name
    datatype: string
  - name: nick
    datatype: string
    cardinality: list
edges:
  - name: knows
    multiplicity: multi
    sortkey: [age, name]
  - name: father
    multiplicity: many2one
    consistency: fork
indexes:
  - name: knowsByName
    base: knows
    direction: both
    sortkey: [name]
    sortorder: desc
`

func TestMultiplicity(t *testing.T) {
	if !Many2One.IsUnique(Out) || Many2One.IsUnique(In) || Many2One.IsUnique(Both) {
		t.Error("Unexpected uniqueness of MANY2ONE")
		return
	}

	if !One2Many.IsUnique(In) || One2Many.IsUnique(Out) {
		t.Error("Unexpected uniqueness of ONE2MANY")
		return
	}

	if !One2One.IsUnique(Out) || !One2One.IsUnique(In) || !One2One.IsUnique(Both) {
		t.Error("Unexpected uniqueness of ONE2ONE")
		return
	}

	if Multi.IsConstrained() || !Simple.IsConstrained() || Simple.IsUnique(Out) {
		t.Error("Unexpected constraints")
		return
	}

	if Single.Multiplicity() != Many2One || List.Multiplicity() != Multi || Set.Multiplicity() != Simple {
		t.Error("Unexpected cardinality mapping")
		return
	}

	if m, err := ParseMultiplicity("one2many"); m != One2Many || err != nil {
		t.Error("Unexpected result:", m, err)
		return
	}

	if _, err := ParseMultiplicity("foo"); err == nil {
		t.Error("Expected error")
		return
	}

	if Both.Contains(In) != true || Out.Contains(In) || In.Position() != 1 || DirectionFromPosition(0) != Out {
		t.Error("Unexpected direction behaviour")
		return
	}

	if Desc.Modulate(1) != -1 || Asc.Modulate(1) != 1 {
		t.Error("Unexpected order behaviour")
		return
	}
}

func TestDataTypes(t *testing.T) {

	if v, err := TypeInt.Convert(5); v != int64(5) || err != nil {
		t.Error("Unexpected result:", v, err)
		return
	}

	if v, err := TypeInt.Convert(5.0); v != int64(5) || err != nil {
		t.Error("Unexpected result:", v, err)
		return
	}

	if _, err := TypeInt.Convert(5.5); err == nil {
		t.Error("Expected error")
		return
	}

	if _, err := TypeString.Convert(5); err == nil || err.Error() != "Value 5 (int) is not compatible with data type string" {
		t.Error("Unexpected result:", err)
		return
	}

	if v, err := TypeFloat.Convert(int32(2)); v != float64(2) || err != nil {
		t.Error("Unexpected result:", v, err)
		return
	}

	if v, err := TypeAny.Convert(uint8(2)); v != int64(2) || err != nil {
		t.Error("Unexpected result:", v, err)
		return
	}

	if v, err := TypeVertex.Convert(7); v != uint64(7) || err != nil {
		t.Error("Unexpected result:", v, err)
		return
	}

	if _, err := TypeAny.Convert([]string{}); err == nil {
		t.Error("Expected error")
		return
	}

	if v, err := TypeAny.Parse("1.5"); v != 1.5 || err != nil {
		t.Error("Unexpected result:", v, err)
		return
	}

	if v, err := TypeAny.Parse("abc"); v != "abc" || err != nil {
		t.Error("Unexpected result:", v, err)
		return
	}

	if v, err := TypeBool.Parse("true"); v != true || err != nil {
		t.Error("Unexpected result:", v, err)
		return
	}

	if !TypeInt.IsOrdered() || TypeBool.IsOrdered() || TypeAny.IsOrdered() {
		t.Error("Unexpected ordering")
		return
	}

	if c, ok := CompareValues("a", "b"); c != -1 || !ok {
		t.Error("Unexpected result:", c, ok)
		return
	}

	if c, ok := CompareValues(int64(3), int64(2)); c != 1 || !ok {
		t.Error("Unexpected result:", c, ok)
		return
	}

	if c, ok := CompareValues(false, true); c != -1 || !ok {
		t.Error("Unexpected result:", c, ok)
		return
	}

	if _, ok := CompareValues(int64(3), "a"); ok {
		t.Error("Values of different types should not be comparable")
		return
	}
}

func TestManager(t *testing.T) {
	m := NewManager(make(map[string]string))

	if err := m.LoadDefinitions([]byte(testDefinitions)); err != nil {
		t.Error(err)
		return
	}

	age := m.PropertyKey("age")
	name := m.PropertyKey("name")
	knows := m.EdgeLabel("knows")

	if age == nil || name == nil || knows == nil || m.EdgeLabel("age") != nil {
		t.Error("Unexpected lookup result")
		return
	}

	if age.ID() != util.FirstCode || knows.ID() != util.FirstCode+3 {
		t.Error("Unexpected ids:", age.ID(), knows.ID())
		return
	}

	if res := fmt.Sprint(knows.SortKey()); res != fmt.Sprint([]uint64{age.ID(), name.ID()}) {
		t.Error("Unexpected sort key:", res)
		return
	}

	if res := len(knows.Indexes()); res != 2 || knows.Indexes()[0] != knows {
		t.Error("Unexpected indexes:", knows.Indexes())
		return
	}

	idx := knows.Indexes()[1]
	if idx.Base() != knows || idx.Category() != CategoryEdge || idx.SortOrder() != Desc ||
		idx.IndexDirection() != Both || IsSortedLike(idx) || !IsSortedLike(knows) {
		t.Error("Unexpected index:", idx)
		return
	}

	if res := fmt.Sprint(idx); res != "RelationIndex knowsByName on knows (BOTH)" {
		t.Error("Unexpected result:", res)
		return
	}

	if m.Type("father").Consistency() != ConsistencyFork || !IsUnique(m.Type("father"), Out) {
		t.Error("Unexpected father label")
		return
	}

	if m.Type("~adjacent") != KeyAdjacent || m.TypeByID(KeyValue.ID()) != KeyValue ||
		!KeyAdjacent.IsSystem() || !LabelExists.IsHidden() || KeyID.IsHidden() {
		t.Error("Unexpected system keys")
		return
	}

	if dt, ok := ValueType(age); dt != TypeInt || !ok {
		t.Error("Unexpected value type")
		return
	}

	if _, ok := ValueType(knows); ok {
		t.Error("Edge labels carry no value")
		return
	}

	// Applying the same definitions again is fine

	version := m.Version()

	if err := m.LoadDefinitions([]byte(testDefinitions)); err != nil || m.Version() != version {
		t.Error("Unexpected result:", err, m.Version())
		return
	}

	// Round trip through the definitions of a new manager with the same name database

	data, err := m.MarshalDefinitions()
	if err != nil {
		t.Error(err)
		return
	}

	m2 := NewManager(m.NameDB())
	if err := m2.LoadDefinitions(data); err != nil {
		t.Error(err)
		return
	}

	if len(m2.Types()) != 6 || m2.Type("knowsByName").ID() != idx.ID() ||
		m2.Type("knowsByName").SortOrder() != Desc || m2.PropertyKey("nick").Cardinality() != List {
		t.Error("Unexpected types:", m2.Types())
		return
	}
}

func TestManagerErrors(t *testing.T) {
	m := NewManager(make(map[string]string))

	if err := m.LoadDefinitions([]byte(testDefinitions)); err != nil {
		t.Error(err)
		return
	}

	checkSchemaError := func(err error, expected string) {
		t.Helper()
		if !errors.Is(err, util.ErrSchema) || err.Error() != expected {
			t.Error("Unexpected result:", err)
		}
	}

	_, err := m.MakePropertyKey("age").Make()
	checkSchemaError(err, "GraphError: Invalid schema definition (Type age already exists)")

	_, err = m.MakeEdgeLabel("~foo").Make()
	checkSchemaError(err, `GraphError: Invalid schema definition (Invalid type name: "~foo")`)

	_, err = m.MakeEdgeLabel("likes").SortKey(Asc, "nick").Make()
	checkSchemaError(err, "GraphError: Invalid schema definition (Sort key nick of likes must have cardinality SINGLE)")

	_, err = m.MakeEdgeLabel("likes").SortKey(Asc, "knows").Make()
	checkSchemaError(err, "GraphError: Invalid schema definition (Sort key knows of likes is not a property key)")

	_, err = m.MakeEdgeLabel("likes").SortKey(Asc, "age", "age").Make()
	checkSchemaError(err, "GraphError: Invalid schema definition (Sort key age of likes is used more than once)")

	_, err = m.BuildIndex(m.Type("knows"), "knowsIdx", Both, Asc)
	checkSchemaError(err, "GraphError: Invalid schema definition (Index knowsIdx needs a sort key)")

	_, err = m.BuildIndex(KeyID, "idIdx", Both, Asc, "age")
	checkSchemaError(err, "GraphError: Invalid schema definition (Cannot index ~id)")

	err = m.LoadDefinitions([]byte("properties:\n  - name: age\n    datatype: string\n"))
	checkSchemaError(err, "GraphError: Invalid schema definition (Conflicting definition of age)")

	err = m.LoadDefinitions([]byte("edges:\n  - name: x\n    multiplicity: foo\n"))
	checkSchemaError(err, "GraphError: Invalid schema definition (Unknown multiplicity: foo)")

	err = m.LoadDefinitions([]byte("properties: foo"))
	if !errors.Is(err, util.ErrSchema) {
		t.Error("Unexpected result:", err)
	}

	// Type policies

	if _, err := m.GetOrCreateEdgeLabel("likes"); !errors.Is(err, util.ErrUnknownType) {
		t.Error("Unexpected result:", err)
		return
	}

	if _, err := m.GetOrCreatePropertyKey("knows"); !errors.Is(err, util.ErrSchema) {
		t.Error("Unexpected result:", err)
		return
	}

	m.Policy = PolicyCreate

	el, err := m.GetOrCreateEdgeLabel("likes")
	if err != nil || el.Multiplicity() != Multi {
		t.Error("Unexpected result:", el, err)
		return
	}

	pk, err := m.GetOrCreatePropertyKey("color")
	if err != nil || pk.DataType() != TypeAny || pk.Cardinality() != Single {
		t.Error("Unexpected result:", pk, err)
		return
	}

	if p, ignore, err := ParseTypePolicy("ignore"); p != PolicyStrict || !ignore || err != nil {
		t.Error("Unexpected result:", p, ignore, err)
		return
	}
}
