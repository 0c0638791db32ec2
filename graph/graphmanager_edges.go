/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package graph

import (
	"context"

	"devt.de/krotik/relgraph/graph/data"
	"devt.de/krotik/relgraph/graph/schema"
	"devt.de/krotik/relgraph/graph/util"
)

/*
AddEdge adds a new edge from this vertex to another vertex. The multiplicity
of the edge label is checked against the existing edges of both vertices.
*/
func (v *Vertex) AddEdge(ctx context.Context, label string, in *Vertex) (data.Edge, error) {
	if err := v.checkWritable(); err != nil {
		return nil, err
	}

	if in == nil || in.tx != v.tx {
		return nil, util.NewGraphError(util.ErrInvalidData, "Edge target must be a vertex of the same transaction")
	} else if in.IsRemoved() {
		return nil, util.NewGraphError(util.ErrInvalidState, "%v was removed", in)
	}

	el, err := v.tx.gm.sm.GetOrCreateEdgeLabel(label)
	if err != nil {
		return nil, err
	}

	if err := v.checkMultiplicity(ctx, el, in); err != nil {
		return nil, err
	}

	e := data.NewStandardEdge(v.tx, el, v, in)

	if err := v.tx.AddRelation(e); err != nil {
		return nil, err
	}

	if err := v.tx.gm.gr.graphEvent(ctx, v.tx, EventRelationAdded, e); err != nil && err != ErrEventHandled {
		return e, err
	}

	return e, nil
}

/*
checkMultiplicity checks if a new edge of a given label can be added between
this vertex and another vertex.
*/
func (v *Vertex) checkMultiplicity(ctx context.Context, el *schema.EdgeLabel, in *Vertex) error {
	var count int
	var err error

	violation := func(format string, args ...interface{}) error {
		if err == nil && count > 0 {
			return util.NewGraphError(util.ErrInvalidData, format, args...)
		}
		return err
	}

	m := el.Multiplicity()

	if m == schema.Simple {
		count, err = v.Query().labelType(el).Direction(schema.Out).Adjacent(in).Limit(1).Count(ctx)

		if err = violation("An edge %v already exists between %v and %v", el.Name(), v, in); err != nil {
			return err
		}
	}

	if m.IsUnique(schema.Out) {
		count, err = v.Query().labelType(el).Direction(schema.Out).Limit(1).Count(ctx)

		if err = violation("%v already has an outgoing edge %v", v, el.Name()); err != nil {
			return err
		}
	}

	if m.IsUnique(schema.In) {
		count, err = in.Query().labelType(el).Direction(schema.In).Limit(1).Count(ctx)

		if err = violation("%v already has an incoming edge %v", in, el.Name()); err != nil {
			return err
		}
	}

	return nil
}

/*
SetProperty adds a property value to this vertex. A single valued key
replaces all existing values, a set valued key returns the existing property
if the value is already present and a list valued key always adds the value.
*/
func (v *Vertex) SetProperty(ctx context.Context, key string, value interface{}) (data.VertexProperty, error) {
	if err := v.checkWritable(); err != nil {
		return nil, err
	}

	pk, err := v.tx.gm.sm.GetOrCreatePropertyKey(key)
	if err != nil {
		return nil, err
	}

	cv, err := pk.DataType().Convert(value)
	if err != nil {
		return nil, util.WrapGraphError(util.ErrInvalidData, err)
	}

	switch pk.Cardinality() {

	case schema.Single:
		existing, err := v.Query().keyType(pk).Properties(ctx)
		if err != nil {
			return nil, err
		}

		for _, p := range existing {
			if err := p.It().Remove(); err != nil {
				return nil, err
			}
		}

	case schema.Set:
		existing, err := v.Query().keyType(pk).hasValue(schema.KeyValue, cv).Limit(1).Properties(ctx)
		if err != nil {
			return nil, err
		} else if len(existing) > 0 {
			return existing[0], nil
		}
	}

	p := data.NewStandardVertexProperty(v.tx, pk, v, cv)

	if err := v.tx.AddRelation(p); err != nil {
		return nil, err
	}

	if err := v.tx.gm.gr.graphEvent(ctx, v.tx, EventRelationAdded, p); err != nil && err != ErrEventHandled {
		return p, err
	}

	return p, nil
}

/*
Values returns all values of a property key of this vertex.
*/
func (v *Vertex) Values(ctx context.Context, key string) ([]interface{}, error) {
	props, err := v.Query().Keys(key).Properties(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]interface{}, 0, len(props))

	for _, p := range props {
		res = append(res, p.Value())
	}

	return res, nil
}

/*
Value returns the first value of a property key of this vertex or nil if the
vertex has no value for the key.
*/
func (v *Vertex) Value(ctx context.Context, key string) (interface{}, error) {
	props, err := v.Query().Keys(key).Limit(1).Properties(ctx)
	if err != nil || len(props) == 0 {
		return nil, err
	}

	return props[0].Value(), nil
}
