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
Package schema contains the relation type model of the graph.

Every relation (edge or vertex property) has a relation type. Property keys
type vertex properties and edge properties, edge labels type edges. A relation
type declares a sort key (an ordered list of property keys) which defines the
physical order of its relations inside a vertex row, a multiplicity which
limits how many relations of the type may exist per vertex and direction, and
a consistency modifier. Relation indexes are additional variants of a type
which store the same relations under a different sort key.

System keys (~id, ~adjacent, ~value and ~type) are a fixed set of implicit
keys with reserved ids. They can be used in query constraints but are never
stored as regular relations.
*/
package schema

import (
	"fmt"
	"strings"
)

/*
Direction of a relation relative to a vertex
*/
type Direction int

/*
Known directions
*/
const (
	Out Direction = iota
	In
	Both
)

/*
String returns a string representation of a direction.
*/
func (d Direction) String() string {
	switch d {
	case Out:
		return "OUT"
	case In:
		return "IN"
	case Both:
		return "BOTH"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

/*
Position returns the relation position of a direction (0 for out, 1 for in).
*/
func (d Direction) Position() int {
	if d == In {
		return 1
	}
	return 0
}

/*
Contains returns if this direction includes another direction.
*/
func (d Direction) Contains(other Direction) bool {
	return d == Both || d == other
}

/*
DirectionFromPosition returns the direction of a relation position.
*/
func DirectionFromPosition(pos int) Direction {
	if pos == 1 {
		return In
	}
	return Out
}

/*
ParseDirection parses a direction string.
*/
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "out":
		return Out, nil
	case "in":
		return In, nil
	case "both", "":
		return Both, nil
	}
	return Both, fmt.Errorf("Unknown direction: %v", s)
}

/*
RelationCategory is the category of a relation.
*/
type RelationCategory int

/*
Known relation categories
*/
const (
	CategoryProperty RelationCategory = iota
	CategoryEdge
	CategoryRelation
)

/*
String returns a string representation of a category.
*/
func (c RelationCategory) String() string {
	switch c {
	case CategoryProperty:
		return "PROPERTY"
	case CategoryEdge:
		return "EDGE"
	}
	return "RELATION"
}

/*
Includes returns if relations of a given category are part of this category.
*/
func (c RelationCategory) Includes(other RelationCategory) bool {
	return c == CategoryRelation || c == other
}

/*
Multiplicity limits the number of relations of a type per vertex.
*/
type Multiplicity int

/*
Known multiplicities
*/
const (
	Multi    Multiplicity = iota // Any number of relations
	Simple                       // At most one relation between two endpoints
	Many2One                     // At most one outgoing relation per vertex
	One2Many                     // At most one incoming relation per vertex
	One2One                      // At most one outgoing and one incoming relation per vertex
)

/*
IsUnique returns if at most one relation of a type can exist in a direction.
*/
func (m Multiplicity) IsUnique(d Direction) bool {
	switch d {
	case Out:
		return m == Many2One || m == One2One
	case In:
		return m == One2Many || m == One2One
	}
	return m == One2One
}

/*
IsConstrained returns if the multiplicity restricts the number of relations.
*/
func (m Multiplicity) IsConstrained() bool {
	return m != Multi
}

/*
String returns a string representation of a multiplicity.
*/
func (m Multiplicity) String() string {
	return [...]string{"MULTI", "SIMPLE", "MANY2ONE", "ONE2MANY", "ONE2ONE"}[m]
}

/*
ParseMultiplicity parses a multiplicity string.
*/
func ParseMultiplicity(s string) (Multiplicity, error) {
	for m := Multi; m <= One2One; m++ {
		if strings.EqualFold(m.String(), s) {
			return m, nil
		}
	}
	if s == "" {
		return Multi, nil
	}
	return Multi, fmt.Errorf("Unknown multiplicity: %v", s)
}

/*
Cardinality limits the number of values of a property key per vertex.
*/
type Cardinality int

/*
Known cardinalities
*/
const (
	Single Cardinality = iota // One value per vertex
	List                      // Any number of values
	Set                       // Any number of distinct values
)

/*
Multiplicity returns the multiplicity which corresponds to this cardinality.
*/
func (c Cardinality) Multiplicity() Multiplicity {
	switch c {
	case List:
		return Multi
	case Set:
		return Simple
	}
	return Many2One
}

/*
String returns a string representation of a cardinality.
*/
func (c Cardinality) String() string {
	return [...]string{"SINGLE", "LIST", "SET"}[c]
}

/*
ParseCardinality parses a cardinality string.
*/
func ParseCardinality(s string) (Cardinality, error) {
	for c := Single; c <= Set; c++ {
		if strings.EqualFold(c.String(), s) {
			return c, nil
		}
	}
	if s == "" {
		return Single, nil
	}
	return Single, fmt.Errorf("Unknown cardinality: %v", s)
}

/*
ConsistencyModifier defines how updates of relations are handled.
*/
type ConsistencyModifier int

/*
Known consistency modifiers
*/
const (
	ConsistencyDefault ConsistencyModifier = iota // Updates keep the relation id
	ConsistencyLock                               // Updates keep the relation id and are locked
	ConsistencyFork                               // Updates create a new relation with a new id
)

/*
String returns a string representation of a consistency modifier.
*/
func (c ConsistencyModifier) String() string {
	return [...]string{"DEFAULT", "LOCK", "FORK"}[c]
}

/*
ParseConsistency parses a consistency modifier string.
*/
func ParseConsistency(s string) (ConsistencyModifier, error) {
	for c := ConsistencyDefault; c <= ConsistencyFork; c++ {
		if strings.EqualFold(c.String(), s) {
			return c, nil
		}
	}
	if s == "" {
		return ConsistencyDefault, nil
	}
	return ConsistencyDefault, fmt.Errorf("Unknown consistency modifier: %v", s)
}

/*
Order is a sort order.
*/
type Order int

/*
Known sort orders
*/
const (
	Asc Order = iota
	Desc
)

/*
String returns a string representation of a sort order.
*/
func (o Order) String() string {
	if o == Desc {
		return "DESC"
	}
	return "ASC"
}

/*
Modulate applies the sort order to a comparison result.
*/
func (o Order) Modulate(cmp int) int {
	if o == Desc {
		return -cmp
	}
	return cmp
}

/*
ParseOrder parses a sort order string.
*/
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(s) {
	case "asc", "":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return Asc, fmt.Errorf("Unknown sort order: %v", s)
}
