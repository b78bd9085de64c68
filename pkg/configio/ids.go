package configio

import (
	"strings"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// IDGenerator yields fresh element ids
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc adapts a function to an IDGenerator
type IDGeneratorFunc func() string

// NewID yields an id
func (f IDGeneratorFunc) NewID() string { return f() }

// UUIDGenerator generates random UUIDs (version 4)
func UUIDGenerator() IDGenerator {
	return IDGeneratorFunc(func() string { return uuid.New().String() })
}

// KSUIDGenerator generates k-sortable ids: ids generated later sort after earlier ones
func KSUIDGenerator() IDGenerator {
	return IDGeneratorFunc(func() string { return ksuid.New().String() })
}

// IDGeneratorByName picks a generator by name: "uuid" or "ksuid". It returns false for unknown names.
func IDGeneratorByName(name string) (IDGenerator, bool) {
	switch strings.ToLower(name) {
	case "", "uuid":
		return UUIDGenerator(), true
	case "ksuid":
		return KSUIDGenerator(), true
	default:
		return nil, false
	}
}
