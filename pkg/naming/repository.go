package naming

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/oneconcern/confstore/pkg/repository/status"
)

// MaxRepositoryNameLength is the maximum number of characters in a repository name
const MaxRepositoryNameLength = 127

var rexReserved = regexp.MustCompile(`(?i)^(CON|PRN|AUX|NUL|COM[1-9]|LPT[1-9])$`)

// ValidateRepositoryName checks that a name is usable as a directory name on any common filesystem.
//
// Valid names are made of letters, digits, spaces, '.', '_' and '-', do not start or end
// with '.' or '-', and are not reserved device names.
func ValidateRepositoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return status.ErrValidation.Wrapf("repository name must not be blank")
	}
	if utf8.RuneCountInString(name) > MaxRepositoryNameLength {
		return status.ErrValidation.Wrapf("repository name cannot be longer than %d characters", MaxRepositoryNameLength)
	}
	if strings.ContainsAny(name, `/\`) {
		return status.ErrValidation.Wrapf("repository name %q cannot contain path separators such as '/' or '\\'", name)
	}
	for _, c := range name {
		if !unicode.IsLetter(c) && !unicode.IsNumber(c) && !strings.ContainsRune(" ._-", c) {
			return status.ErrValidation.Wrapf("repository name %q contains unsupported character %q", name, c)
		}
	}
	if rexEndpoint.MatchString(name) {
		return status.ErrValidation.Wrapf("repository name %q must not start or end with hyphens or periods", name)
	}
	if rexReserved.MatchString(name) {
		return status.ErrValidation.Wrapf("repository name %q is reserved by some operating systems", name)
	}
	return nil
}
