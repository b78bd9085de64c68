package repository

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/oneconcern/confstore/pkg/repository/status"
	"github.com/pmezard/go-difflib/difflib"
)

const (
	oldPrefix = "a/"
	newPrefix = "b/"
	devNull   = "/dev/null"

	noNewline = "\\ No newline at end of file\n"
)

// splitLines splits text into lines, each keeping its terminating '\n' if any.
// A trailing newline does not produce an extra empty line.
func splitLines(text []byte) []string {
	if len(text) == 0 {
		return nil
	}
	lines := make([]string, 0, bytes.Count(text, []byte{'\n'})+1)
	for len(text) > 0 {
		i := bytes.IndexByte(text, '\n')
		if i < 0 {
			lines = append(lines, string(text))
			break
		}
		lines = append(lines, string(text[:i+1]))
		text = text[i+1:]
	}
	return lines
}

// editScript computes the line edits turning a into b. Equal opcodes are included.
// It returns nil when a and b have the same lines.
func editScript(a, b []string) []difflib.OpCode {
	matcher := difflib.NewMatcherWithJunk(a, b, false, nil)
	codes := matcher.GetOpCodes()
	for _, c := range codes {
		if c.Tag != 'e' {
			return codes
		}
	}
	return nil
}

// formatHunks renders the edits as a single hunk with full-file context
func formatHunks(buf *bytes.Buffer, a, b []string, codes []difflib.OpCode) {
	buf.WriteString("@@ -")
	writeRange(buf, 1, len(a))
	buf.WriteString(" +")
	writeRange(buf, 1, len(b))
	buf.WriteString(" @@\n")

	for _, c := range codes {
		switch c.Tag {
		case 'e':
			writeLines(buf, ' ', a[c.I1:c.I2])
		case 'd':
			writeLines(buf, '-', a[c.I1:c.I2])
		case 'i':
			writeLines(buf, '+', b[c.J1:c.J2])
		case 'r':
			writeLines(buf, '-', a[c.I1:c.I2])
			writeLines(buf, '+', b[c.J1:c.J2])
		}
	}
}

func writeRange(buf *bytes.Buffer, begin, count int) {
	switch count {
	case 0:
		// an empty range starts at the line before it
		buf.WriteString(strconv.Itoa(begin - 1))
		buf.WriteString(",0")
	case 1:
		buf.WriteString(strconv.Itoa(begin))
	default:
		buf.WriteString(strconv.Itoa(begin))
		buf.WriteByte(',')
		buf.WriteString(strconv.Itoa(count))
	}
}

func writeLines(buf *bytes.Buffer, prefix byte, lines []string) {
	for _, line := range lines {
		buf.WriteByte(prefix)
		buf.WriteString(line)
		if len(line) == 0 || line[len(line)-1] != '\n' {
			buf.WriteByte('\n')
			buf.WriteString(noNewline)
		}
	}
}

// changeHeader describes one side-by-side file change, for header rendering
type changeHeader struct {
	kind    DiffType
	oldPath string
	newPath string
	oldMode filemode.FileMode
	newMode filemode.FileMode
	oldID   plumbing.Hash
	newID   plumbing.Hash
	// similarity score, in percent
	score int
	// renamed or copied changes cannot be rendered
	renamed bool
}

// formatHeader renders the git extended header of a change:
//
//	diff --git a/path b/path
//	[old mode / new mode | new file mode | deleted file mode]
//	[dissimilarity index]
//	index <old>..<new>[ mode]
//	--- a/path | /dev/null
//	+++ b/path | /dev/null
func formatHeader(buf *bytes.Buffer, h changeHeader) error {
	if h.renamed {
		return status.ErrVersioning.Wrapf("unified diff header for renamed or copied files is not supported: %q -> %q", h.oldPath, h.newPath)
	}

	oldPath, newPath := h.oldPath, h.newPath
	switch h.kind {
	case DiffAdd:
		oldPath = newPath
	case DiffDelete:
		newPath = oldPath
	case DiffModify:
	default:
		return status.ErrVersioning.Wrapf("no unified diff header for %v change on %q", h.kind, h.newPath)
	}

	fmt.Fprintf(buf, "diff --git %s %s\n", quotePath(oldPrefix+oldPath), quotePath(newPrefix+newPath))

	switch h.kind {
	case DiffModify:
		if h.oldMode != h.newMode {
			fmt.Fprintf(buf, "old mode %s\nnew mode %s\n", formatMode(h.oldMode), formatMode(h.newMode))
		}
		if h.score > 0 {
			fmt.Fprintf(buf, "dissimilarity index %d%%\n", 100-h.score)
		}
	case DiffAdd:
		fmt.Fprintf(buf, "new file mode %s\n", formatMode(h.newMode))
	case DiffDelete:
		fmt.Fprintf(buf, "deleted file mode %s\n", formatMode(h.oldMode))
	}

	fmt.Fprintf(buf, "index %s..%s", h.oldID, h.newID)
	if h.oldMode == h.newMode {
		fmt.Fprintf(buf, " %s", formatMode(h.newMode))
	}
	buf.WriteByte('\n')

	if h.kind == DiffAdd {
		buf.WriteString("--- " + devNull + "\n")
	} else {
		buf.WriteString("--- " + quotePath(oldPrefix+h.oldPath) + "\n")
	}
	if h.kind == DiffDelete {
		buf.WriteString("+++ " + devNull + "\n")
	} else {
		buf.WriteString("+++ " + quotePath(newPrefix+h.newPath) + "\n")
	}
	return nil
}

func formatMode(m filemode.FileMode) string {
	return fmt.Sprintf("%06o", uint32(m))
}

var pathEscapes = map[byte]string{
	'\a': `\a`,
	'\b': `\b`,
	'\f': `\f`,
	'\n': `\n`,
	'\r': `\r`,
	'\t': `\t`,
	'\v': `\v`,
	'"':  `\"`,
	'\\': `\\`,
}

// quotePath quotes a path the way git does when core.quotePath is on:
// paths with control characters, quotes, backslashes or non-ASCII bytes
// are enclosed in double quotes, with C-style and octal escapes.
func quotePath(p string) string {
	needsQuote := false
	for i := 0; i < len(p); i++ {
		if mustEscape(p[i]) {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return p
	}

	var buf bytes.Buffer
	buf.Grow(len(p) + 8)
	buf.WriteByte('"')
	for i := 0; i < len(p); i++ {
		c := p[i]
		if !mustEscape(c) {
			buf.WriteByte(c)
			continue
		}
		if esc, ok := pathEscapes[c]; ok {
			buf.WriteString(esc)
			continue
		}
		fmt.Fprintf(&buf, "\\%03o", c)
	}
	buf.WriteByte('"')
	return buf.String()
}

func mustEscape(c byte) bool {
	return c < 0x20 || c >= 0x7f || c == '"' || c == '\\'
}
