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
Package server contains the code for the relgraph server.

The server opens the configured store, creates a graph manager, starts the
ECAL scripting interpreter and an optional metrics endpoint. It runs until
its lockfile is removed.
*/
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/common/lockutil"
	"devt.de/krotik/relgraph/config"
	"devt.de/krotik/relgraph/ecal"
	"devt.de/krotik/relgraph/graph"
	"devt.de/krotik/relgraph/graph/graphstorage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

/*
Using custom consolelogger type so we can test fatal calls with unit tests. Overwrite
these if the server should not call os.Exit on a fatal error.
*/
type consolelogger func(v ...interface{})

var fatal = consolelogger(logrus.Fatal)
var print = consolelogger(logrus.Info)

/*
Base path for all files (used by unit tests)
*/
var basepath = ""

/*
StoreName is the name of the store which is opened by the server.
*/
var StoreName = "main"

/*
StartServer runs the relgraph server. The server uses config.Config for all its configuration
parameters.
*/
func StartServer() {
	StartServerWithSingleOp(nil)
}

/*
StartServerWithSingleOp runs the relgraph server. If the singleOperation function is
not nil then the server executes the function and exists if the function returns true.
*/
func StartServerWithSingleOp(singleOperation func(*graph.Manager) bool) {
	ctx := context.Background()

	print(fmt.Sprintf("relgraph %v", config.ProductVersion))

	// Ensure we have a configuration - use the default configuration if nothing was set

	if config.Config == nil {
		config.LoadDefaultConfig()
	}

	// Create the store

	if backend := config.Str(config.StorageBackend); backend == config.BackendMemory {
		print("Starting memory only datastore")
	} else {
		print(fmt.Sprintf("Starting datastore (%v) in %v", backend, config.Str(config.LocationDatastore)))
	}

	store, err := graphstorage.Open(StoreName)
	if err != nil {
		fatal(err)
		return
	}

	// Create GraphManager

	print("Creating GraphManager instance")

	gm, err := graph.NewGraphManagerFromConfig(ctx, store)
	if err != nil {
		store.Close()
		fatal(err)
		return
	}

	defer func() {

		print("Closing datastore")

		if err := gm.Close(); err != nil {
			fatal(err)
			return
		}

		os.RemoveAll(filepath.Join(basepath, config.Str(config.LockFile)))
	}()

	// Handle single operation - these are operations which work on the GraphManager
	// and then exit.

	if singleOperation != nil && singleOperation(gm) {
		return
	}

	// Start the scripting interpreter

	if config.Bool(config.EnableECALScripts) {
		scriptFolder := filepath.Join(basepath, config.Str(config.ECALScriptFolder))

		print("Loading ECAL scripts in ", scriptFolder)

		ensurePath(scriptFolder)

		if err := ecal.NewScriptingInterpreter(scriptFolder, gm).Run(); err != nil {
			fatal("Failed to start ECAL scripting interpreter:", err)
			return
		}
	}

	// Start the metrics endpoint

	var hs *http.Server

	if addr := config.Str(config.MetricsAddress); addr != "" {
		var listener net.Listener

		if listener, err = net.Listen("tcp", addr); err != nil {
			fatal("Failed to start metrics endpoint:", err)
			return
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		hs = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		print("Serving metrics on: ", listener.Addr())

		go hs.Serve(listener)
	}

	// Create a lockfile so the server can be shut down

	lf := lockutil.NewLockFile(filepath.Join(basepath, config.Str(config.LockFile)), time.Duration(2)*time.Second)

	if err := lf.Start(); err != nil {
		fatal("Failed to create lockfile:", err)
		return
	}

	print("Waiting for shutdown")

	// Check if the lockfile watcher is running and
	// shut down once it has finished

	for lf.WatcherRunning() {
		time.Sleep(time.Duration(1) * time.Second)
	}

	print("Lockfile was modified")

	lf.Finish()

	print("Shutting down")

	if hs != nil {
		hs.Shutdown(ctx)
	}
}

/*
ensurePath ensures that a given relative path exists.
*/
func ensurePath(path string) {
	if res, _ := fileutil.PathExists(path); !res {
		if err := os.MkdirAll(path, 0770); err != nil {
			fatal("Could not create directory:", err.Error())
			return
		}
	}
}
