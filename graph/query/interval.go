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
	"bytes"
	"fmt"

	"devt.de/krotik/relgraph/graph/codec"
	"devt.de/krotik/relgraph/graph/schema"
)

/*
ProperInterval is a set of values of a single key. It is either a point, a
range with optional bounds or empty. Intervals can only be narrowed.
*/
type ProperInterval struct {
	dataType       schema.DataType // Data type of the values
	start          interface{}     // Start bound (nil if unbounded)
	startInclusive bool            // Flag if the start bound is part of the interval
	end            interface{}     // End bound (nil if unbounded)
	endInclusive   bool            // Flag if the end bound is part of the interval
	point          bool            // Flag if this interval is a single point
	empty          bool            // Flag if this interval is empty
}

/*
NewProperInterval creates a new unbounded interval.
*/
func NewProperInterval(dt schema.DataType) *ProperInterval {
	return &ProperInterval{dataType: dt}
}

/*
IsPoint returns if this interval contains exactly one value.
*/
func (pi *ProperInterval) IsPoint() bool {
	return pi.point && !pi.empty
}

/*
IsEmpty returns if this interval contains no value.
*/
func (pi *ProperInterval) IsEmpty() bool {
	return pi.empty
}

/*
IsRange returns if this interval is a non-empty range with at least one bound.
*/
func (pi *ProperInterval) IsRange() bool {
	return !pi.empty && !pi.point && (pi.start != nil || pi.end != nil)
}

/*
Point returns the value of a point interval.
*/
func (pi *ProperInterval) Point() interface{} {
	return pi.start
}

/*
Start returns the start bound and its inclusivity.
*/
func (pi *ProperInterval) Start() (interface{}, bool) {
	return pi.start, pi.startInclusive
}

/*
End returns the end bound and its inclusivity.
*/
func (pi *ProperInterval) End() (interface{}, bool) {
	return pi.end, pi.endInclusive
}

/*
KeyRange returns this interval as range of a slice query.
*/
func (pi *ProperInterval) KeyRange() *codec.KeyRange {
	return &codec.KeyRange{Start: pi.start, StartInclusive: pi.startInclusive,
		End: pi.end, EndInclusive: pi.endInclusive}
}

func (pi *ProperInterval) compare(v1, v2 interface{}) int {
	return codec.CompareValues(pi.dataType, v1, v2)
}

/*
Contains returns if a value is part of this interval.
*/
func (pi *ProperInterval) Contains(v interface{}) bool {
	if pi.empty || v == nil {
		return false
	}

	if pi.start != nil {
		c := pi.compare(v, pi.start)
		if c < 0 || (c == 0 && !pi.startInclusive) {
			return false
		}
	}

	if pi.end != nil {
		c := pi.compare(v, pi.end)
		if c > 0 || (c == 0 && !pi.endInclusive) {
			return false
		}
	}

	return true
}

/*
SetPoint narrows this interval to a single value. The interval becomes empty
if the value is not part of it.
*/
func (pi *ProperInterval) SetPoint(v interface{}) {
	if !pi.Contains(v) && (pi.start != nil || pi.end != nil) {
		pi.empty = true
		return
	}

	pi.start, pi.startInclusive = v, true
	pi.end, pi.endInclusive = v, true
	pi.point = true
}

/*
NarrowStart narrows the start of this interval. The bound is only applied if
it is tighter than the current start.
*/
func (pi *ProperInterval) NarrowStart(v interface{}, inclusive bool) {
	if pi.empty {
		return
	}

	if pi.point {
		c := pi.compare(pi.start, v)
		pi.empty = c < 0 || (c == 0 && !inclusive)
		return
	}

	if pi.start == nil {
		pi.start, pi.startInclusive = v, inclusive
	} else if c := pi.compare(v, pi.start); c > 0 {
		pi.start, pi.startInclusive = v, inclusive
	} else if c == 0 {
		pi.startInclusive = pi.startInclusive && inclusive
	}

	pi.normalise()
}

/*
NarrowEnd narrows the end of this interval. The bound is only applied if it
is tighter than the current end.
*/
func (pi *ProperInterval) NarrowEnd(v interface{}, inclusive bool) {
	if pi.empty {
		return
	}

	if pi.point {
		c := pi.compare(pi.start, v)
		pi.empty = c > 0 || (c == 0 && !inclusive)
		return
	}

	if pi.end == nil {
		pi.end, pi.endInclusive = v, inclusive
	} else if c := pi.compare(v, pi.end); c < 0 {
		pi.end, pi.endInclusive = v, inclusive
	} else if c == 0 {
		pi.endInclusive = pi.endInclusive && inclusive
	}

	pi.normalise()
}

/*
normalise detects empty ranges and ranges which only contain a single value.
*/
func (pi *ProperInterval) normalise() {
	if pi.start == nil || pi.end == nil {
		return
	}

	c := pi.compare(pi.start, pi.end)

	if c > 0 || (c == 0 && !(pi.startInclusive && pi.endInclusive)) {
		pi.empty = true
	} else if c == 0 {
		pi.point = true
	}
}

/*
String returns a string representation of this interval.
*/
func (pi *ProperInterval) String() string {
	if pi.empty {
		return "EMPTY"
	} else if pi.point {
		return fmt.Sprintf("[%v]", pi.start)
	}

	var buf bytes.Buffer

	if pi.start == nil {
		buf.WriteString("(-")
	} else if pi.startInclusive {
		buf.WriteString(fmt.Sprintf("[%v", pi.start))
	} else {
		buf.WriteString(fmt.Sprintf("(%v", pi.start))
	}

	buf.WriteString(", ")

	if pi.end == nil {
		buf.WriteString("-)")
	} else if pi.endInclusive {
		buf.WriteString(fmt.Sprintf("%v]", pi.end))
	} else {
		buf.WriteString(fmt.Sprintf("%v)", pi.end))
	}

	return buf.String()
}

/*
IntervalSet is the result of an interval compilation.
*/
type IntervalSet struct {
	Intervals map[uint64]*ProperInterval // Interval per key id
	Fitted    bool                       // Flag if all predicates were captured
	Empty     bool                       // Flag if an interval is empty
}

/*
Interval returns the interval of a key or nil.
*/
func (is *IntervalSet) Interval(keyID uint64) *ProperInterval {
	return is.Intervals[keyID]
}

/*
CompileIntervals compiles a conjunction of atomic predicates into one interval
per key. NotEqual predicates, predicates without a value and range predicates
on keys without ordered values are not captured.
*/
func CompileIntervals(predicates []*PredicateCondition) *IntervalSet {
	res := &IntervalSet{make(map[uint64]*ProperInterval), true, false}

	for _, p := range predicates {
		dt, ok := schema.ValueType(p.Key)

		if !ok || p.Value == nil || p.Cmp == NotEqual || (p.Cmp.IsRange() && !dt.IsOrdered()) {
			res.Fitted = false
			continue
		}

		pi, ok := res.Intervals[p.Key.ID()]
		if !ok {
			pi = NewProperInterval(dt)
			res.Intervals[p.Key.ID()] = pi
		}

		switch p.Cmp {
		case Equal:
			pi.SetPoint(p.Value)
		case LessThan, LessThanEqual:
			pi.NarrowEnd(p.Value, p.Cmp == LessThanEqual)
		case GreaterThan, GreaterThanEqual:
			pi.NarrowStart(p.Value, p.Cmp == GreaterThanEqual)
		}

		if pi.IsEmpty() {
			res.Empty = true
		}
	}

	return res
}
