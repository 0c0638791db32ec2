/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package cli

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"devt.de/krotik/relgraph/ecal/dbfunc"
	"devt.de/krotik/relgraph/graph"
	"devt.de/krotik/relgraph/graph/data"
	"devt.de/krotik/relgraph/graph/query"
	"devt.de/krotik/relgraph/graph/schema"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

/*
Known result types of the query command
*/
const (
	ResultRelations  = "relations"
	ResultEdges      = "edges"
	ResultProperties = "properties"
	ResultNeighbors  = "neighbors"
	ResultCount      = "count"
)

/*
QueryOptions holds the flags which describe a vertex-centric query.
*/
type QueryOptions struct {
	Direction string
	Labels    []string
	Keys      []string
	Types     []string
	Where     []string
	Adjacent  uint64
	OrderBy   string
	Limit     int
	Result    string
}

var constraintPattern = regexp.MustCompile(`^\s*([^<>=!\s]+)\s*(==|!=|<=|>=|=|<|>)\s*(.*)$`)

func addQueryFlags(cmd *cobra.Command, opts *QueryOptions) {
	f := cmd.Flags()

	f.StringVarP(&opts.Direction, "direction", "d", "both", "direction of edges (in, out or both)")
	f.StringSliceVarP(&opts.Labels, "label", "l", nil, "edge labels")
	f.StringSliceVarP(&opts.Keys, "key", "k", nil, "property keys")
	f.StringSliceVarP(&opts.Types, "type", "t", nil, "edge labels or property keys")
	f.StringArrayVarP(&opts.Where, "where", "w", nil, "constraint on a property (e.g. since>=2001)")
	f.Uint64Var(&opts.Adjacent, "adjacent", 0, "id of an adjacent vertex")
	f.StringVarP(&opts.OrderBy, "orderby", "o", "", "property key to order by with an optional sort order (e.g. since:desc)")
	f.IntVarP(&opts.Limit, "limit", "n", -1, "max number of results")
}

/*
NewQueryCommand creates the query command.
*/
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <vertex id>",
		Short: "Run a vertex-centric query",
		Long: `Run a vertex-centric query on the edges and properties of a vertex.

Examples:

  relgraph query 1 --label knows --direction out --orderby since:desc --limit 10
  relgraph query 1 --where "since>=2001" --result neighbors
  relgraph query 1 --key name --result properties`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnGraph(func(gm *graph.Manager) error {
				return runQuery(context.Background(), gm, args[0], opts, cmd.OutOrStdout())
			})
		},
	}

	addQueryFlags(cmd, opts)

	cmd.Flags().StringVarP(&opts.Result, "result", "r", ResultRelations,
		"result type (relations, edges, properties, neighbors or count)")

	return cmd
}

/*
NewExplainCommand creates the explain command.
*/
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "explain <vertex id>",
		Short: "Describe how a vertex-centric query is run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnGraph(func(gm *graph.Manager) error {
				b, err := buildQuery(context.Background(), gm, args[0], opts)
				if err != nil {
					return err
				}

				res, err := b.Explain(schema.CategoryRelation)
				if err == nil {
					fmt.Fprintln(cmd.OutOrStdout(), res)
				}

				return err
			})
		},
	}

	addQueryFlags(cmd, opts)

	return cmd
}

/*
buildQuery builds a vertex-centric query from query options.
*/
func buildQuery(ctx context.Context, gm *graph.Manager, vertex string, opts *QueryOptions) (*graph.VertexCentricQueryBuilder, error) {
	id, err := strconv.ParseUint(vertex, 10, 64)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("Invalid vertex id: %v", vertex)
	}

	tx := graph.NewGraphTrans(gm)

	v, err := tx.GetVertex(ctx, id)
	if err != nil {
		return nil, err
	} else if v == nil {
		return nil, fmt.Errorf("Unknown vertex: %v", id)
	}

	b := v.Query()

	dir, err := schema.ParseDirection(opts.Direction)
	if err != nil {
		return nil, err
	}

	b.Direction(dir)

	if len(opts.Labels) > 0 {
		b.Labels(opts.Labels...)
	}
	if len(opts.Keys) > 0 {
		b.Keys(opts.Keys...)
	}
	if len(opts.Types) > 0 {
		b.Types(opts.Types...)
	}

	for _, w := range opts.Where {
		key, cmp, value, err := parseConstraint(gm.Schema(), w)
		if err != nil {
			return nil, err
		}

		b.HasCmp(key, cmp, value)
	}

	if opts.Adjacent != 0 {
		av, err := tx.GetVertex(ctx, opts.Adjacent)
		if err != nil {
			return nil, err
		} else if av == nil {
			return nil, fmt.Errorf("Unknown adjacent vertex: %v", opts.Adjacent)
		}

		b.Adjacent(av)
	}

	if opts.OrderBy != "" {
		key, order, _ := strings.Cut(opts.OrderBy, ":")

		o, err := schema.ParseOrder(order)
		if err != nil {
			return nil, err
		}

		b.OrderBy(key, o)
	}

	if opts.Limit >= 0 {
		b.Limit(opts.Limit)
	}

	return b, b.Err()
}

/*
parseConstraint parses a constraint of the form <key><operator><value>. The
value is parsed with the data type of the key if the key is known.
*/
func parseConstraint(sm *schema.Manager, s string) (string, query.Cmp, interface{}, error) {
	m := constraintPattern.FindStringSubmatch(s)
	if m == nil {
		return "", query.Equal, nil, fmt.Errorf("Invalid constraint: %v", s)
	}

	cmp, err := query.ParseCmp(m[2])
	if err != nil {
		return "", query.Equal, nil, err
	}

	var value interface{} = m[3]

	if pk := sm.PropertyKey(m[1]); pk != nil {
		if value, err = pk.DataType().Parse(m[3]); err != nil {
			return "", query.Equal, nil, fmt.Errorf("Invalid constraint %v: %v", s, err)
		}
	}

	return m[1], cmp, value, nil
}

/*
runQuery runs a query and writes its result as YAML.
*/
func runQuery(ctx context.Context, gm *graph.Manager, vertex string, opts *QueryOptions, out io.Writer) error {
	b, err := buildQuery(ctx, gm, vertex, opts)
	if err != nil {
		return err
	}

	var res interface{}
	var rels []data.Relation

	switch opts.Result {
	case ResultRelations:
		rels, err = b.Relations(ctx)

	case ResultEdges:
		var edges []data.Edge
		if edges, err = b.Edges(ctx); err == nil {
			for _, e := range edges {
				rels = append(rels, e)
			}
		}

	case ResultProperties:
		var props []data.VertexProperty
		if props, err = b.Properties(ctx); err == nil {
			for _, p := range props {
				rels = append(rels, p)
			}
		}

	case ResultNeighbors:
		res, err = b.VertexIDs(ctx)

	case ResultCount:
		var c int
		if c, err = b.Count(ctx); err == nil {
			fmt.Fprintln(out, c)
		}
		return err

	default:
		return fmt.Errorf("Unknown result type: %v", opts.Result)
	}

	if err != nil {
		return err
	}

	if res == nil {
		list := make([]interface{}, 0, len(rels))
		for _, r := range rels {
			list = append(list, dbfunc.RelationToECAL(gm.Schema(), r))
		}
		res = list
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)

	if err = enc.Encode(res); err == nil {
		err = enc.Close()
	}

	return err
}
