// Package model describes the base objects manipulated by confstore.
//
// The object model for confstore is composed of:
//
//  Configurations:
//    A configuration is a named tree of models, stored in its own repository.
//    Every save of a configuration produces a new version.
//
//  Versions:
//    A version is a point in time read-only view of a configuration.
//    This is analogous to a commit in git. Versions carry an auto-generated
//    name (v1.0.0, v1.0.1, ...) and optionally a custom name, both stored as tags.
//
//  Models:
//    A model groups nodes. Every node refers back to its model by id.
//
//  Nodes:
//    A node is an element of a model. It owns the relations it is the source of.
//
//  Relations:
//    A relation links its source node to a target node, referenced by id.
//
// Identifiers are unique within a configuration, across all kinds of elements.
package model
