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
Package cli contains the command line interface of relgraph.

	relgraph server                     Runs the server until its lockfile is removed
	relgraph load <definitions>         Applies YAML type definitions to the schema
	relgraph schema                     Prints the schema as YAML
	relgraph query <vertex id> [flags]  Runs a vertex-centric query
	relgraph explain <vertex id>        Describes how a query is run

All commands read the configuration file given by --config.
*/
package cli

import (
	"fmt"

	"devt.de/krotik/relgraph/config"
	"devt.de/krotik/relgraph/graph"
	"devt.de/krotik/relgraph/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

/*
RootOptions holds the global flags of all commands.
*/
type RootOptions struct {
	ConfigFile string
	Verbose    bool
}

/*
singleOp runs an operation on the graph manager of the configured store. The
store is closed once the operation has finished.
*/
var singleOp = server.StartServerWithSingleOp

/*
NewRootCommand creates the root command of relgraph.
*/
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "relgraph",
		Short: "relgraph - vertex-centric queries on a key column value store",
		Long: fmt.Sprintf(`relgraph %v

A graph database which stores the relations of each vertex in one row of a
key column value store and answers vertex-centric queries with slice reads.`,
			config.ProductVersion),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.WarnLevel)
			}

			if err := config.LoadConfigFile(opts.ConfigFile); err != nil {
				return fmt.Errorf("Could not load config file %v: %v", opts.ConfigFile, err)
			}

			logrus.Debug("Loaded config file ", opts.ConfigFile)

			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", config.DefaultConfigFile, "config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewServerCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewExplainCommand(opts))

	return cmd
}

/*
NewServerCommand creates the server command.
*/
func NewServerCommand(rootOpts *RootOptions) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the relgraph server",
		Long: `Run the relgraph server with the ECAL scripting interpreter and the
metrics endpoint. The server shuts down once its lockfile is removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if metricsAddr != "" {
				config.Config[config.MetricsAddress] = metricsAddr
			}

			logrus.SetLevel(logrus.InfoLevel)
			if rootOpts.Verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}

			server.StartServer()

			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address of the metrics endpoint (overrides config)")

	return cmd
}

/*
runOnGraph runs a function on the graph manager of the configured store and
returns its error.
*/
func runOnGraph(f func(gm *graph.Manager) error) error {
	var err error

	singleOp(func(gm *graph.Manager) bool {
		err = f(gm)
		return true
	})

	return err
}
