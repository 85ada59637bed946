//go:build unix

package integrity

import (
	"os"
	"os/user"
	"strconv"
	"sync"
	"syscall"
)

// unixIdentityResolver resolves file owners from the stat uid, caching
// uid-to-name lookups for the duration of a scan.
type unixIdentityResolver struct {
	mu    sync.Mutex
	names map[uint32]string
}

func newIdentityResolver() IdentityResolver {
	return &unixIdentityResolver{names: make(map[uint32]string)}
}

func (r *unixIdentityResolver) ResolveOwner(info os.FileInfo) (Owner, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return Owner{}, false
	}

	id := strconv.FormatUint(uint64(st.Uid), 10)

	r.mu.Lock()
	defer r.mu.Unlock()
	name, cached := r.names[st.Uid]
	if !cached {
		if u, err := user.LookupId(id); err == nil {
			name = u.Username
		}
		r.names[st.Uid] = name
	}

	return Owner{ID: id, Name: name}, true
}
