// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	units "github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/oneconcern/confstore/pkg/model"
	"gopkg.in/yaml.v2"
)

// now may be patched in tests
var now = time.Now

// render writes data in the selected output format. Tables are built by table.
func render(w io.Writer, data interface{}, table func(io.Writer) error) error {
	switch confstoreFlags.root.Format {
	case formatYAML:
		b, err := yaml.Marshal(data)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case formatJSON:
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case formatTable, "":
		return table(w)
	default:
		return fmt.Errorf("unsupported output format %q", confstoreFlags.root.Format)
	}
}

func mustRender(data interface{}, table func(io.Writer) error) {
	if err := render(out, data, table); err != nil {
		wrapFatalln("writing output", err)
	}
}

func newTable(headers ...interface{}) *uitable.Table {
	t := uitable.New()
	t.MaxColWidth = 60
	t.Wrap = true
	t.AddRow(headers...)
	return t
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

func age(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return units.HumanDuration(now().Sub(ts)) + " ago"
}

func versionOf(c *model.Configuration) model.ConfigurationVersion {
	if c.Version == nil {
		return model.ConfigurationVersion{}
	}
	return *c.Version
}

func configurationsTable(configurations []*model.Configuration) func(io.Writer) error {
	return func(w io.Writer) error {
		t := newTable("NAME", "VERSION", "CUSTOM NAME", "MODELS", "NODES", "RELATIONS", "SAVED")
		for _, c := range configurations {
			v := versionOf(c)
			models, nodes, relations := c.Counts()
			t.AddRow(c.Name, v.Name, v.CustomName, models, nodes, relations, age(v.Timestamp))
		}
		_, err := fmt.Fprintln(w, t)
		return err
	}
}

func configurationTable(c *model.Configuration) func(io.Writer) error {
	return func(w io.Writer) error {
		v := versionOf(c)
		header := uitable.New()
		header.AddRow("Configuration:", c.Name)
		header.AddRow("Version:", v.Name)
		if v.CustomName != "" {
			header.AddRow("Custom name:", v.CustomName)
		}
		header.AddRow("Commit:", v.Hash)
		header.AddRow("Saved:", age(v.Timestamp))
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}

		t := newTable("KIND", "ID", "PARENT", "TYPE", "TEXT")
		p := model.NewProcessor(c)
		p.Models(func(m *model.Model) {
			t.AddRow("model", m.ID, "", m.Type, m.Text)
		})
		p.Nodes(func(n *model.Node, m *model.Model) {
			t.AddRow("node", n.ID, m.ID, n.Type, n.Text)
		})
		p.Relations(func(r *model.Relation, n *model.Node) {
			t.AddRow("relation", r.ID, n.ID, r.Type, r.Text)
		})
		_, err := fmt.Fprintln(w, t)
		return err
	}
}

func versionsTable(versions []model.ConfigurationVersion) func(io.Writer) error {
	return func(w io.Writer) error {
		t := newTable("VERSION", "CUSTOM NAME", "COMMIT", "SAVED")
		for _, v := range versions {
			t.AddRow(v.Name, v.CustomName, shortHash(v.Hash), age(v.Timestamp))
		}
		_, err := fmt.Fprintln(w, t)
		return err
	}
}

func versionTable(v model.ConfigurationVersion) func(io.Writer) error {
	return versionsTable([]model.ConfigurationVersion{v})
}

var (
	addedColor   = color.New(color.FgGreen)
	deletedColor = color.New(color.FgRed)
	hunkColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.Bold)
)

// diffTable prints every element diff with a colored unified diff
func diffTable(d model.ConfigurationDiff) func(io.Writer) error {
	return func(w io.Writer) error {
		if d.Len() == 0 {
			_, err := fmt.Fprintln(w, "no changes")
			return err
		}
		var err error
		d.Elements(func(kind, id string, e *model.ElementDiff) {
			if err != nil {
				return
			}
			_, err = headerColor.Fprintln(w, diffHeader(kind, id, e))
			if err != nil || e.DiffType == model.DiffUnchanged {
				return
			}
			err = writeColoredDiff(w, e.Diff)
		})
		return err
	}
}

func diffHeader(kind, id string, e *model.ElementDiff) string {
	header := fmt.Sprintf("%s %s %s", e.DiffType, kind, id)
	if e.Stat != nil {
		header += " (+" + strconv.Itoa(e.Stat.Added) + " ~" + strconv.Itoa(e.Stat.Changed) + " -" + strconv.Itoa(e.Stat.Deleted) + ")"
	}
	return header
}

func writeColoredDiff(w io.Writer, text string) error {
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		var err error
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "diff "):
			_, err = headerColor.Fprint(w, line)
		case strings.HasPrefix(line, "@@"):
			_, err = hunkColor.Fprint(w, line)
		case strings.HasPrefix(line, "+"):
			_, err = addedColor.Fprint(w, line)
		case strings.HasPrefix(line, "-"):
			_, err = deletedColor.Fprint(w, line)
		default:
			_, err = io.WriteString(w, line)
		}
		if err != nil {
			return err
		}
	}
	if !strings.HasSuffix(text, "\n") {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}
