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
	"os"

	"devt.de/krotik/relgraph/graph"
	"github.com/spf13/cobra"
)

/*
NewLoadCommand creates the load command.
*/
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <definitions>",
		Short: "Apply YAML type definitions to the schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			return runOnGraph(func(gm *graph.Manager) error {
				if err := gm.LoadDefinitions(context.Background(), defs); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Loaded definitions from %v (schema version %v)\n",
					args[0], gm.Schema().Version())

				return nil
			})
		},
	}
}

/*
NewSchemaCommand creates the schema command.
*/
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the schema as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnGraph(func(gm *graph.Manager) error {
				out, err := gm.Schema().MarshalDefinitions()

				if err == nil {
					_, err = cmd.OutOrStdout().Write(out)
				}

				return err
			})
		},
	}
}
