// Package repository stores versioned file trees in git repositories.
//
// The package exposes the storage layer used to persist configurations:
//
//  Repository:
//    A named working directory with its git object store. Files are written to and deleted from
//    the working directory, then committed through the repository's Versioning.
//
//  Versioning:
//    Stage, commit, list, compare, checkout, reset and tag operations on one repository.
//    Committing onto the default branch moves HEAD only when HEAD coincides with that branch,
//    so checking out an older version never rewrites the main line: only Reset does.
//
//  Version:
//    A read-only snapshot of a repository: a commit id, its tags and all its file objects.
//
//  DiffEntry:
//    A classified change between two versions (add, modify, delete or unchanged), with its
//    unified diff text.
//
//  Factory and Manager:
//    The Factory locates repositories under a root directory. The Manager runs functions against
//    repositories and always closes them afterwards.
package repository
