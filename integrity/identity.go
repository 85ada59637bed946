package integrity

import (
	"os"
	"os/user"
)

// Owner is the resolved identity of a file's owner. ID may be empty on
// platforms without a numeric owner concept.
type Owner struct {
	ID   string
	Name string
}

// IdentityResolver is an optional platform capability for resolving the
// owner of a filesystem entry. Platforms without the capability return a
// nil resolver and the fingerprinter falls back to the current process user.
type IdentityResolver interface {
	ResolveOwner(info os.FileInfo) (Owner, bool)
}

// fallbackOwner returns the effective user of the current process, leaving
// the numeric ID unresolved.
func fallbackOwner() Owner {
	current, err := user.Current()
	if err != nil {
		return Owner{}
	}
	return Owner{Name: current.Username}
}
