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

	"devt.de/krotik/relgraph/graph/schema"
)

/*
Cmp is a comparison operator of an atomic predicate.
*/
type Cmp int

/*
Known comparison operators
*/
const (
	Equal Cmp = iota
	NotEqual
	LessThan
	LessThanEqual
	GreaterThan
	GreaterThanEqual
)

var cmpSymbols = []string{"=", "!=", "<", "<=", ">", ">="}

/*
String returns the symbol of the operator.
*/
func (c Cmp) String() string {
	if c < Equal || c > GreaterThanEqual {
		return fmt.Sprintf("Cmp(%d)", int(c))
	}
	return cmpSymbols[c]
}

/*
ParseCmp parses an operator symbol.
*/
func ParseCmp(s string) (Cmp, error) {
	for i, sym := range cmpSymbols {
		if sym == s {
			return Cmp(i), nil
		}
	}
	if s == "==" {
		return Equal, nil
	}
	return Equal, fmt.Errorf("Unknown comparison operator: %v", s)
}

/*
IsRange returns if the operator restricts a range of values.
*/
func (c Cmp) IsRange() bool {
	return c >= LessThan && c <= GreaterThanEqual
}

/*
Evaluate applies the operator to an actual value and a condition value. A nil
condition value tests for the absence (Equal) or presence (NotEqual) of a
value. Range operators fail on values which cannot be compared.
*/
func (c Cmp) Evaluate(actual interface{}, value interface{}) bool {

	if value == nil {
		switch c {
		case Equal:
			return actual == nil
		case NotEqual:
			return actual != nil
		}
		return false
	}

	if actual == nil {
		return c == NotEqual
	}

	res, ok := schema.CompareValues(actual, value)

	switch c {
	case Equal:
		return ok && res == 0
	case NotEqual:
		return !ok || res != 0
	case LessThan:
		return ok && res < 0
	case LessThanEqual:
		return ok && res <= 0
	case GreaterThan:
		return ok && res > 0
	case GreaterThanEqual:
		return ok && res >= 0
	}

	return false
}
