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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

/*
Query engine metrics
*/
var (
	CompiledQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relgraph_query_compiled_total",
		Help: "Number of compiled vertex-centric queries by shape",
	}, []string{"shape"})

	SliceQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relgraph_query_slices_total",
		Help: "Number of issued slice queries",
	}, []string{"fitted"})

	LimitGrowths = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relgraph_query_limit_growths_total",
		Help: "Number of slice queries which were issued again with a larger limit",
	})

	FilteredCandidates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relgraph_query_filtered_candidates_total",
		Help: "Number of relations which were discarded by in-memory filtering",
	})
)
