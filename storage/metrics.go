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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheRequests counts slice reads of cached stores by outcome (hit, miss).
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relgraph_store_cache_requests_total",
			Help: "Total number of slice reads served by cached stores",
		},
		[]string{"store", "outcome"},
	)
	// CacheInvalidations counts cached slices dropped because their row was mutated.
	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relgraph_store_cache_invalidations_total",
			Help: "Total number of cached slices dropped by row mutations",
		},
		[]string{"store"},
	)
)
