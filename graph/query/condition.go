/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package query

import (
	"fmt"
	"sort"
	"strings"

	"devt.de/krotik/relgraph/graph/data"
	"devt.de/krotik/relgraph/graph/schema"
)

/*
Condition is a filter condition on relations which are incident on a vertex.
*/
type Condition interface {

	/*
		Evaluate returns if a relation passes this condition. The direction is
		the direction of the relation relative to the given vertex.
	*/
	Evaluate(r data.Relation, vertexID uint64, dir schema.Direction) bool

	/*
		String returns a canonical string representation of this condition.
	*/
	String() string
}

/*
PredicateCondition is an atomic predicate on a key of a relation.
*/
type PredicateCondition struct {
	Key   schema.RelationType // Property key or system key
	Cmp   Cmp                 // Comparison operator
	Value interface{}         // Normalised condition value
}

/*
NewPredicateCondition creates a new atomic predicate. The value must be
normalised by the data type of the key.
*/
func NewPredicateCondition(key schema.RelationType, cmp Cmp, value interface{}) *PredicateCondition {
	return &PredicateCondition{key, cmp, value}
}

/*
Evaluate returns if the value of the key on the relation passes the predicate.
*/
func (pc *PredicateCondition) Evaluate(r data.Relation, vertexID uint64, dir schema.Direction) bool {
	return pc.Cmp.Evaluate(KeyValue(r, pc.Key, vertexID), pc.Value)
}

/*
String returns a string representation of this predicate.
*/
func (pc *PredicateCondition) String() string {
	if s, ok := pc.Value.(string); ok {
		return fmt.Sprintf("%v %v %q", pc.Key.Name(), pc.Cmp, s)
	}
	return fmt.Sprintf("%v %v %v", pc.Key.Name(), pc.Cmp, pc.Value)
}

/*
KeyValue returns the value of a key on a relation. System keys resolve to the
relation id, the adjacent vertex, the property value or the type name.
*/
func KeyValue(r data.Relation, key schema.RelationType, vertexID uint64) interface{} {
	switch key {
	case schema.KeyID:
		return r.ID()

	case schema.KeyAdjacent:
		if e, ok := r.(data.Edge); ok {
			return e.OtherVertexID(vertexID)
		}
		return nil

	case schema.KeyValue:
		if p, ok := r.(data.VertexProperty); ok {
			return p.Value()
		}
		return nil

	case schema.KeyType:
		return r.Type().Name()
	}

	v, _ := r.Property(key.ID())

	return v
}

/*
TypeCondition accepts relations of a given type.
*/
type TypeCondition struct {
	Type schema.RelationType
}

/*
Evaluate returns if the relation has the type of this condition.
*/
func (tc *TypeCondition) Evaluate(r data.Relation, vertexID uint64, dir schema.Direction) bool {
	return r.Type().Base().ID() == tc.Type.Base().ID()
}

/*
String returns a string representation of this condition.
*/
func (tc *TypeCondition) String() string {
	return fmt.Sprintf("type = %v", tc.Type.Name())
}

/*
CategoryCondition accepts relations of a given category.
*/
type CategoryCondition struct {
	Category schema.RelationCategory
}

/*
Evaluate returns if the relation is part of the category of this condition.
*/
func (cc *CategoryCondition) Evaluate(r data.Relation, vertexID uint64, dir schema.Direction) bool {
	return cc.Category.Includes(data.Category(r))
}

/*
String returns a string representation of this condition.
*/
func (cc *CategoryCondition) String() string {
	return fmt.Sprintf("category = %v", cc.Category)
}

/*
DirectionCondition accepts relations with a given direction.
*/
type DirectionCondition struct {
	Direction schema.Direction
}

/*
Evaluate returns if the direction of the relation is part of the direction
of this condition.
*/
func (dc *DirectionCondition) Evaluate(r data.Relation, vertexID uint64, dir schema.Direction) bool {
	return dc.Direction.Contains(dir)
}

/*
String returns a string representation of this condition.
*/
func (dc *DirectionCondition) String() string {
	return fmt.Sprintf("direction = %v", dc.Direction)
}

/*
VisibilityCondition rejects hidden relations.
*/
type VisibilityCondition struct {
}

/*
Evaluate returns if the relation is visible.
*/
func (vc *VisibilityCondition) Evaluate(r data.Relation, vertexID uint64, dir schema.Direction) bool {
	return !r.Type().IsHidden()
}

/*
String returns a string representation of this condition.
*/
func (vc *VisibilityCondition) String() string {
	return "visible"
}

/*
And is a conjunction of conditions. An empty conjunction is true.
*/
type And struct {
	Children []Condition
}

/*
Evaluate returns if the relation passes all children.
*/
func (a *And) Evaluate(r data.Relation, vertexID uint64, dir schema.Direction) bool {
	for _, c := range a.Children {
		if !c.Evaluate(r, vertexID, dir) {
			return false
		}
	}
	return true
}

/*
String returns a string representation of this condition.
*/
func (a *And) String() string {
	return joinConditions(a.Children, " AND ")
}

/*
Or is a disjunction of conditions. An empty disjunction is false.
*/
type Or struct {
	Children []Condition
}

/*
Evaluate returns if the relation passes any child.
*/
func (o *Or) Evaluate(r data.Relation, vertexID uint64, dir schema.Direction) bool {
	for _, c := range o.Children {
		if c.Evaluate(r, vertexID, dir) {
			return true
		}
	}
	return false
}

/*
String returns a string representation of this condition.
*/
func (o *Or) String() string {
	return joinConditions(o.Children, " OR ")
}

func joinConditions(children []Condition, sep string) string {
	var parts []string
	for _, c := range children {
		parts = append(parts, c.String())
	}
	return "(" + strings.Join(parts, sep) + ")"
}

/*
NewAnd creates a conjunction in query normal form. Nested conjunctions are
flattened, duplicates are removed and a single child is returned as is.
*/
func NewAnd(children ...Condition) Condition {
	var res []Condition

	seen := make(map[string]bool)

	var add func(c Condition)
	add = func(c Condition) {
		if and, ok := c.(*And); ok {
			for _, child := range and.Children {
				add(child)
			}
			return
		}
		if c == nil || seen[c.String()] {
			return
		}
		seen[c.String()] = true
		res = append(res, c)
	}

	for _, c := range children {
		add(c)
	}

	if len(res) == 1 {
		if _, ok := res[0].(*Or); !ok {
			return res[0]
		}
	}

	return &And{res}
}

/*
NewOr creates a disjunction in query normal form. Children must be atomic
conditions or conjunctions of atomic conditions. Nested disjunctions are
flattened and duplicates are removed. Children are ordered by their string
representation.
*/
func NewOr(children ...Condition) Condition {
	var res []Condition

	seen := make(map[string]bool)

	var add func(c Condition)
	add = func(c Condition) {
		if or, ok := c.(*Or); ok {
			for _, child := range or.Children {
				add(child)
			}
			return
		}
		if c == nil || seen[c.String()] {
			return
		}
		seen[c.String()] = true
		res = append(res, c)
	}

	for _, c := range children {
		add(c)
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].String() < res[j].String()
	})

	if len(res) == 1 {
		return res[0]
	}

	return &Or{res}
}

/*
IsQNF returns if a condition is in query normal form: an atomic condition, a
disjunction of atomic conditions or conjunctions of atomic conditions, or a
conjunction of such disjunctions and atomic conditions.
*/
func IsQNF(c Condition) bool {
	isAtomic := func(c Condition) bool {
		switch c.(type) {
		case *And, *Or:
			return false
		}
		return true
	}

	isAtomicAnd := func(c Condition) bool {
		and, ok := c.(*And)
		if !ok {
			return isAtomic(c)
		}
		for _, child := range and.Children {
			if !isAtomic(child) {
				return false
			}
		}
		return true
	}

	isOr := func(c Condition) bool {
		or, ok := c.(*Or)
		if !ok {
			return isAtomic(c)
		}
		for _, child := range or.Children {
			if !isAtomicAnd(child) {
				return false
			}
		}
		return true
	}

	if and, ok := c.(*And); ok {
		for _, child := range and.Children {
			if !isOr(child) {
				return false
			}
		}
		return true
	}

	return isOr(c)
}
