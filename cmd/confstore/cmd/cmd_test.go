// Copyright © 2018 One Concern

package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oneconcern/confstore/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const factoryYAML = `
name: ignored
version:
  hash: 0123456789abcdef
models:
  - id: m1
    text: Production line
    nodes:
      - id: n1
        text: Press
        relations:
          - id: r1
            text: feeds
            target:
              id: n2
      - id: n2
        text: Oven
`

type exitRecorder struct {
	code    int
	message string
}

// runCommand runs the CLI with fresh per-command flags and returns its output
func runCommand(t *testing.T, root string, args ...string) (string, exitRecorder) {
	t.Helper()
	var (
		buf  bytes.Buffer
		exit exitRecorder
	)
	saveOut, saveFatalf, saveFatalln, saveExit := out, logFatalf, logFatalln, osExit
	defer func() {
		out, logFatalf, logFatalln, osExit = saveOut, saveFatalf, saveFatalln, saveExit
	}()
	out = &buf
	logFatalf = func(format string, v ...interface{}) {
		exit = exitRecorder{code: 1, message: fmt.Sprintf(format, v...)}
	}
	logFatalln = func(v ...interface{}) {
		exit = exitRecorder{code: 1, message: fmt.Sprintln(v...)}
	}
	osExit = func(code int) { exit.code = code }

	confstoreFlags.config.File = ""
	confstoreFlags.config.Version = ""
	confstoreFlags.config.CustomName = ""
	confstoreFlags.config.Unchanged = false

	global := []string{"--root", root, "--log-level", "none", "--encoding", "UTF-8", "--ids", "uuid", "--branch", "main"}
	rootCmd.SetArgs(append(global, args...))
	require.NoError(t, rootCmd.Execute())
	return buf.String(), exit
}

func decodeJSON(t *testing.T, text string, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(text), target), text)
}

func TestCommands(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CONFSTORE_CONFIG", "")
	root := filepath.Join(t.TempDir(), "repos")
	doc := filepath.Join(t.TempDir(), "factory.yaml")
	require.NoError(t, os.WriteFile(doc, []byte(factoryYAML), 0o600))

	output, exit := runCommand(t, root, "repo", "create", "factory", "-f", doc, "--name", "initial", "-o", "json")
	require.Zero(t, exit.code, exit.message)
	var created model.Configuration
	decodeJSON(t, output, &created)
	assert.Equal(t, "factory", created.Name)
	require.NotNil(t, created.Version)
	assert.Equal(t, "v1.0.0", created.Version.Name)
	assert.Equal(t, "initial", created.Version.CustomName)
	models, nodes, relations := created.Counts()
	assert.Equal(t, []int{1, 2, 1}, []int{models, nodes, relations})

	modified := strings.Replace(strings.Replace(factoryYAML, "name: ignored", "name: factory", 1), "text: Oven", "text: Furnace", 1)
	require.NoError(t, os.WriteFile(doc, []byte(modified), 0o600))
	output, exit = runCommand(t, root, "config", "save", "-f", doc, "-o", "yaml")
	require.Zero(t, exit.code, exit.message)
	assert.Contains(t, output, "name: v1.0.1")

	output, exit = runCommand(t, root, "config", "versions", "factory", "-o", "json")
	require.Zero(t, exit.code, exit.message)
	var versions []model.ConfigurationVersion
	decodeJSON(t, output, &versions)
	require.Len(t, versions, 2)
	assert.Equal(t, "v1.0.1", versions[0].Name)
	assert.Equal(t, "v1.0.0", versions[1].Name)

	output, exit = runCommand(t, root, "config", "diff", "factory", "initial", "v1.0.1", "-o", "table")
	require.Zero(t, exit.code, exit.message)
	assert.Contains(t, output, "MODIFY node n2 (+0 ~1 -0)")
	assert.Contains(t, output, "+  <text>Furnace</text>")

	output, exit = runCommand(t, root, "config", "tag", "factory", "v1.0.1", "golden: build 1", "-o", "json")
	require.Zero(t, exit.code, exit.message)
	var tagged model.ConfigurationVersion
	decodeJSON(t, output, &tagged)
	assert.Equal(t, "golden: build 1", tagged.CustomName)

	output, exit = runCommand(t, root, "config", "get", "factory", "--version", "golden: build 1", "-o", "table")
	require.Zero(t, exit.code, exit.message)
	assert.Contains(t, output, "Furnace")

	_, exit = runCommand(t, root, "repo", "rename", "factory", "plant", "-o", "json")
	require.Zero(t, exit.code, exit.message)

	output, exit = runCommand(t, root, "repo", "list", "-o", "json")
	require.Zero(t, exit.code, exit.message)
	var all []*model.Configuration
	decodeJSON(t, output, &all)
	require.Len(t, all, 1)
	assert.Equal(t, "plant", all[0].Name)

	_, exit = runCommand(t, root, "repo", "delete", "plant")
	require.Zero(t, exit.code, exit.message)

	_, exit = runCommand(t, root, "config", "get", "plant")
	assert.Equal(t, 2, exit.code, "a missing configuration exits with status 2")
}

func TestDecodeDocument(t *testing.T) {
	fromYAML, err := decodeDocument([]byte(factoryYAML), false)
	require.NoError(t, err)

	fromJSON, err := decodeDocument([]byte(`{"name":"ignored","version":{"hash":"0123456789abcdef"},"models":[{"id":"m1","text":"Production line","nodes":[
	{"id":"n1","text":"Press","relations":[{"id":"r1","text":"feeds","target":{"id":"n2"}}]},{"id":"n2","text":"Oven"}]}]}`), true)
	require.NoError(t, err)
	assert.Equal(t, fromYAML, fromJSON)

	_, err = decodeDocument([]byte("models: [{unknown: field}]"), false)
	require.Error(t, err, "YAML documents are decoded strictly")
}

func TestRender(t *testing.T) {
	save := confstoreFlags.root.Format
	defer func() { confstoreFlags.root.Format = save }()
	saveNow := now
	defer func() { now = saveNow }()
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	now = func() time.Time { return ts.Add(3 * time.Hour) }

	versions := []model.ConfigurationVersion{{Hash: "0123456789abcdef", Name: "v1.0.0", CustomName: "initial", Timestamp: ts}}

	for _, tc := range []struct {
		format string
		want   []string
	}{
		{format: formatTable, want: []string{"VERSION", "v1.0.0", "initial", "01234567", "3 hours ago"}},
		{format: formatYAML, want: []string{"name: v1.0.0", "customName: initial"}},
		{format: formatJSON, want: []string{`"name": "v1.0.0"`, `"hash": "0123456789abcdef"`}},
	} {
		tc := tc
		t.Run(tc.format, func(t *testing.T) {
			confstoreFlags.root.Format = tc.format
			var buf bytes.Buffer
			require.NoError(t, render(&buf, versions, versionsTable(versions)))
			for _, want := range tc.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}

	confstoreFlags.root.Format = "xml"
	require.Error(t, render(&bytes.Buffer{}, versions, versionsTable(versions)))
}

func TestDiffTable(t *testing.T) {
	d := model.ConfigurationDiff{
		Nodes: []model.NodeDiff{
			{
				Node: &model.Node{ID: "n1"},
				ElementDiff: model.ElementDiff{
					DiffType: model.DiffModify,
					Diff:     "--- a/nodes/n1.xml\n+++ b/nodes/n1.xml\n@@ -1 +1 @@\n-a\n+b\n",
					Stat:     &model.DiffStat{Changed: 1},
				},
			},
			{
				Node:        &model.Node{ID: "n2"},
				ElementDiff: model.ElementDiff{DiffType: model.DiffUnchanged, Diff: "<node></node>"},
			},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, diffTable(d)(&buf))
	assert.Equal(t, `MODIFY node n1 (+0 ~1 -0)
--- a/nodes/n1.xml
+++ b/nodes/n1.xml
@@ -1 +1 @@
-a
+b
UNCHANGED node n2
`, buf.String())

	buf.Reset()
	require.NoError(t, diffTable(model.ConfigurationDiff{})(&buf))
	assert.Equal(t, "no changes\n", buf.String())
}
