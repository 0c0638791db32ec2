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
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/relgraph/graph"
	"devt.de/krotik/relgraph/graph/graphstorage"
)

const testdir = "clitest"

const testDefinitions = `
properties:
  - name: name
    datatype: string
  - name: since
    datatype: int
edges:
  - name: knows
    multiplicity: multi
    sortkey: [since]
`

var testConfig = filepath.Join(testdir, "relgraph.config.json")

func TestMain(m *testing.M) {
	flag.Parse()

	removeDir := func() {
		if res, _ := fileutil.PathExists(testdir); res {
			if err := os.RemoveAll(testdir); err != nil {
				fmt.Print("Could not remove test directory:", err.Error())
			}
		}
	}

	removeDir()

	os.Mkdir(testdir, 0770)

	os.WriteFile(testConfig, []byte(fmt.Sprintf(`{
    "StorageBackend": "badger",
    "LocationDatastore": "%v",
    "LockFile": "%v"
}`, filepath.Join(testdir, "db"), filepath.Join(testdir, "relgraph.lck"))), 0600)

	os.WriteFile(filepath.Join(testdir, "defs.yaml"), []byte(testDefinitions), 0600)

	res := m.Run()

	removeDir()

	os.Exit(res)
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer

	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--config", testConfig))

	err := cmd.Execute()

	return out.String(), err
}

/*
seedGraph writes a vertex which knows three other vertices.
*/
func seedGraph(t *testing.T) {
	ctx := context.Background()

	store, err := graphstorage.Open("main")
	if err != nil {
		t.Fatal(err)
	}

	gm, err := graph.NewGraphManagerFromConfig(ctx, store)
	if err != nil {
		t.Fatal(err)
	}

	defer gm.Close()

	since := gm.Schema().PropertyKey("since")

	tx := graph.NewGraphTrans(gm)

	v1, _ := tx.AddVertex(ctx)
	v1.SetProperty(ctx, "name", "Alice")

	for _, year := range []int{2001, 2003, 2002} {
		v, _ := tx.AddVertex(ctx)

		e, err := v1.AddEdge(ctx, "knows", v)
		if err != nil {
			t.Fatal(err)
		}

		e.SetProperty(since, year)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestCommands(t *testing.T) {

	if res, err := execute("load", filepath.Join(testdir, "defs.yaml")); err != nil ||
		!strings.HasPrefix(res, "Loaded definitions from") {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := execute("schema"); err != nil || !strings.Contains(res, "name: knows") {
		t.Error("Unexpected result:", res, err)
		return
	}

	seedGraph(t)

	if res, err := execute("query", "1", "--result", "count"); err != nil || res != "4\n" {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := execute("query", "1", "-l", "knows", "-d", "out", "-o", "since:desc",
		"--result", "neighbors"); err != nil || res != "- 3\n- 4\n- 2\n" {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := execute("query", "1", "-w", "since>=2002", "-n", "1",
		"--result", "neighbors"); err != nil || res != "- 4\n" {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := execute("query", "1", "-k", "name", "--result", "properties"); err != nil ||
		!strings.Contains(res, "value: Alice") {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := execute("query", "2", "--adjacent", "1", "--result", "edges"); err != nil ||
		!strings.Contains(res, "label: knows") {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := execute("explain", "1", "-l", "knows", "-w", "since<2003"); err != nil ||
		!strings.Contains(res, "query RELATION") {
		t.Error("Unexpected result:", res, err)
		return
	}
}

func TestCommandErrors(t *testing.T) {

	for expected, args := range map[string][]string{
		"Invalid vertex id: abc":       {"query", "abc"},
		"Unknown vertex: 99":           {"query", "99"},
		"Unknown result type: foo":     {"query", "1", "--result", "foo"},
		"Invalid constraint: since":    {"query", "1", "-w", "since"},
		"Unknown direction: up":        {"query", "1", "-d", "up"},
		"Unknown sort order: up":       {"explain", "1", "-o", "since:up"},
		"Unknown adjacent vertex: 99":  {"query", "1", "--adjacent", "99"},
		"Invalid constraint since=abc": {"query", "1", "-w", "since=abc"},
		"no such file or directory":    {"load", filepath.Join(testdir, "missing.yaml")},
		"accepts 1 arg(s), received 0": {"query"},
		"unknown flag: --foo":          {"schema", "--foo"},
	} {
		if _, err := execute(args...); err == nil || !strings.Contains(err.Error(), expected) {
			t.Error("Unexpected result:", err, "expected:", expected)
			return
		}
	}
}
