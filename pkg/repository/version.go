package repository

// Version is a read-only snapshot of a repository
type Version struct {
	id      string
	tags    []string
	objects []*Object
}

// ID of the commit for this version
func (v Version) ID() string {
	return v.id
}

// Tags pointing at this version, sorted by name
func (v Version) Tags() []string {
	return append([]string(nil), v.tags...)
}

// Objects yields all the files of this version, in tree order
func (v Version) Objects() []*Object {
	return append([]*Object(nil), v.objects...)
}

// HasTag tells if some tag points at this version
func (v Version) HasTag(tag string) bool {
	for _, t := range v.tags {
		if t == tag {
			return true
		}
	}
	return false
}
