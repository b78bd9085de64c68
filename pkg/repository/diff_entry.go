package repository

// DiffType classifies a DiffEntry
type DiffType uint8

// AffectedObject tells which side of a comparison a DiffEntry refers to
type AffectedObject uint8

const (
	// DiffAdd is a file present only in the new version
	DiffAdd DiffType = iota
	// DiffModify is a file with different content in both versions
	DiffModify
	// DiffDelete is a file present only in the old version
	DiffDelete
	// DiffUnchanged is a file with the same content in both versions
	DiffUnchanged
)

const (
	// AffectsNew entries refer to the new version
	AffectsNew AffectedObject = iota
	// AffectsOld entries refer to the old version
	AffectsOld
	// AffectsBoth entries refer to either version
	AffectsBoth
)

var diffTypeNames = map[DiffType]string{
	DiffAdd:       "ADD",
	DiffModify:    "MODIFY",
	DiffDelete:    "DELETE",
	DiffUnchanged: "UNCHANGED",
}

var affectedNames = map[AffectedObject]string{
	AffectsNew:  "NEW",
	AffectsOld:  "OLD",
	AffectsBoth: "BOTH",
}

func (d DiffType) String() string {
	return diffTypeNames[d]
}

func (a AffectedObject) String() string {
	return affectedNames[a]
}

// DiffEntry is a change between two versions of a repository.
//
// A DiffEntry is one of *AddEntry, *ModifyEntry, *DeleteEntry or *UnchangedEntry.
type DiffEntry interface {
	// Diff yields the unified diff text, or the full content for unchanged entries
	Diff() string
	Type() DiffType
	Affected() AffectedObject
	// OldObject is nil for added files
	OldObject() *Object
	// NewObject is nil for deleted files
	NewObject() *Object
	// Object is the object on the affected side
	Object() *Object

	isDiffEntry()
}

var (
	_ DiffEntry = &AddEntry{}
	_ DiffEntry = &ModifyEntry{}
	_ DiffEntry = &DeleteEntry{}
	_ DiffEntry = &UnchangedEntry{}
)

// AddEntry is a file added in the new version
type AddEntry struct {
	New  *Object
	diff string
}

func (e *AddEntry) Diff() string             { return e.diff }
func (e *AddEntry) Type() DiffType           { return DiffAdd }
func (e *AddEntry) Affected() AffectedObject { return AffectsNew }
func (e *AddEntry) OldObject() *Object       { return nil }
func (e *AddEntry) NewObject() *Object       { return e.New }
func (e *AddEntry) Object() *Object          { return e.New }
func (*AddEntry) isDiffEntry()               {}

// ModifyEntry is a file modified in the new version
type ModifyEntry struct {
	Old  *Object
	New  *Object
	diff string
}

func (e *ModifyEntry) Diff() string             { return e.diff }
func (e *ModifyEntry) Type() DiffType           { return DiffModify }
func (e *ModifyEntry) Affected() AffectedObject { return AffectsNew }
func (e *ModifyEntry) OldObject() *Object       { return e.Old }
func (e *ModifyEntry) NewObject() *Object       { return e.New }
func (e *ModifyEntry) Object() *Object          { return e.New }
func (*ModifyEntry) isDiffEntry()               {}

// DeleteEntry is a file removed in the new version
type DeleteEntry struct {
	Old  *Object
	diff string
}

func (e *DeleteEntry) Diff() string             { return e.diff }
func (e *DeleteEntry) Type() DiffType           { return DiffDelete }
func (e *DeleteEntry) Affected() AffectedObject { return AffectsOld }
func (e *DeleteEntry) OldObject() *Object       { return e.Old }
func (e *DeleteEntry) NewObject() *Object       { return nil }
func (e *DeleteEntry) Object() *Object          { return e.Old }
func (*DeleteEntry) isDiffEntry()               {}

// UnchangedEntry is a file with the same content in both versions.
// Its Diff is the (preprocessed) content of the file, without any header.
type UnchangedEntry struct {
	Unchanged *Object
	content   string
}

func (e *UnchangedEntry) Diff() string             { return e.content }
func (e *UnchangedEntry) Type() DiffType           { return DiffUnchanged }
func (e *UnchangedEntry) Affected() AffectedObject { return AffectsBoth }
func (e *UnchangedEntry) OldObject() *Object       { return e.Unchanged }
func (e *UnchangedEntry) NewObject() *Object       { return e.Unchanged }
func (e *UnchangedEntry) Object() *Object          { return e.Unchanged }
func (*UnchangedEntry) isDiffEntry()               {}
