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
Package query contains the vertex-centric query engine.

A vertex-centric query selects relations (edges and properties) which are
incident on a single vertex. The query state of a builder (direction, types,
constraints, order and limit) is compiled into a BaseVertexCentricQuery which
holds one or more slice queries of the vertex row.

Compile

Constraints are first compiled into intervals per key. For each requested
relation type the index variant whose sort key is best covered by the
intervals is selected and turned into a slice query. A slice query is fitted
if its result needs no further filtering and sorted if its result is already
in the order of the RelationComparator.

Processor

The Processor executes a compiled query through an Executor. Results of
multiple slice queries are deduplicated, unfitted results are filtered with
the residual condition and the relations which were added in the current
transaction are merged in. If a slice query returned fewer matching results
than needed although its limit was exhausted it is issued again with a
larger limit. Simple queries (a single fitted and sorted slice query) are
streamed through a LimitAdjustingIterator.
*/
package query

import (
	"devt.de/krotik/relgraph/storage"
	"github.com/sirupsen/logrus"
)

// Logging
// =======

/*
Logger is a function which processes log messages of the query engine
*/
type Logger func(v ...interface{})

/*
LogInfo is called if an info message is logged in the query code
*/
var LogInfo = Logger(logrus.Info)

/*
LogDebug is called if a debug message is logged in the query code
*/
var LogDebug = Logger(logrus.Debug)

/*
LogNull is a discarding logger to be used for disabling loggers
*/
var LogNull = func(v ...interface{}) {
}

// Limits
// ======

/*
NoLimit is the limit of a query without a limit.
*/
const NoLimit = storage.NoLimit

/*
DefaultHardMaxLimit is the largest limit of a slice query before it is issued
without a limit.
*/
const DefaultHardMaxLimit = 300000

/*
DefaultGrowthFactor is the factor by which the limit of a slice query grows
when it is issued again.
*/
const DefaultGrowthFactor = 2

/*
Settings holds the tunable limits of the query engine.
*/
type Settings struct {
	HardMaxLimit int // Largest limit of a slice query
	GrowthFactor int // Growth factor of slice query limits
}

/*
DefaultSettings returns the default settings.
*/
func DefaultSettings() Settings {
	return Settings{DefaultHardMaxLimit, DefaultGrowthFactor}
}

/*
hardMax returns the effective hard limit.
*/
func (s Settings) hardMax() int {
	if s.HardMaxLimit <= 0 {
		return DefaultHardMaxLimit
	}
	return s.HardMaxLimit
}

/*
Grow returns the next limit of a slice query which was exhausted. Limits
grow until the hard limit is reached after which NoLimit is returned.
*/
func (s Settings) Grow(limit int) int {
	factor := s.GrowthFactor
	if factor < 2 {
		factor = DefaultGrowthFactor
	}

	max := s.hardMax()

	if limit >= max || limit == NoLimit {
		return NoLimit
	} else if limit < 1 {
		return 1
	}

	if limit > max/factor {
		return max
	}

	return limit * factor
}

/*
AdjustLimit computes the limit of a slice query. Each uncovered condition
doubles the limit since it is expected to filter out results. Pending
transaction modifications may hide results so the limit is increased a bit
further. The result is capped by the hard limit but never smaller than the
requested limit.
*/
func (s Settings) AdjustLimit(limit int, uncovered int, hasModifications bool) int {
	if limit == NoLimit || limit <= 0 {
		return limit
	}

	max := s.hardMax()
	adjusted := limit

	for i := 0; i < uncovered && adjusted < max; i++ {
		adjusted *= 2
	}

	if hasModifications && adjusted < max {
		adjusted += 5
	}

	if adjusted > max {
		adjusted = max
	}

	if adjusted < limit {
		return limit
	}

	return adjusted
}
