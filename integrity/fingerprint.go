package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/meysamhadeli/driftcheck/integrity/models"
	"github.com/zeebo/xxh3"
)

// Supported content digest algorithms. XXH3 is the default: fast but not
// of cryptographic strength, so callers that need tamper resistance against
// deliberate collisions should configure sha256.
const (
	HashXXH3   = "xxh3"
	HashSHA256 = "sha256"
)

// Fingerprinter computes the FileRecord for one filesystem entry: metadata
// always, a content digest only for regular files. Read-only.
type Fingerprinter struct {
	algorithm string
	resolver  IdentityResolver
}

// NewFingerprinter returns a fingerprinter using the given digest algorithm.
// An empty algorithm selects XXH3.
func NewFingerprinter(algorithm string) (*Fingerprinter, error) {
	switch algorithm {
	case "", HashXXH3, HashSHA256:
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %q", algorithm)
	}
	if algorithm == "" {
		algorithm = HashXXH3
	}
	return &Fingerprinter{
		algorithm: algorithm,
		resolver:  newIdentityResolver(),
	}, nil
}

// Fingerprint builds the record for path. The info must come from Lstat so
// symlinks are classified rather than followed.
func (f *Fingerprinter) Fingerprint(path string, info os.FileInfo) (models.FileRecord, error) {
	record := models.FileRecord{
		Path:        canonicalPath(path),
		Type:        entryType(info),
		Size:        info.Size(),
		Permissions: permissionString(info.Mode()),
		ModTime:     info.ModTime(),
		ChangeTime:  changeTime(info),
	}

	owner := Owner{}
	resolved := false
	if f.resolver != nil {
		owner, resolved = f.resolver.ResolveOwner(info)
	}
	if !resolved {
		owner = fallbackOwner()
	}
	record.OwnerID = owner.ID
	record.OwnerName = owner.Name

	if info.Mode().IsRegular() {
		digest, err := f.hashFile(path)
		if err != nil {
			return models.FileRecord{}, fmt.Errorf("hashing %s: %w", path, err)
		}
		record.ContentHash = digest
	}

	return record, nil
}

func (f *Fingerprinter) hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	switch f.algorithm {
	case HashSHA256:
		h := sha256.New()
		if _, err := io.Copy(h, file); err != nil {
			return "", err
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	default:
		h := xxh3.New()
		if _, err := io.Copy(h, file); err != nil {
			return "", err
		}
		return fmt.Sprintf("%016x", h.Sum64()), nil
	}
}

// permissionString renders the full mode as conventional octal, folding
// setuid/setgid/sticky into the 4000/2000/1000 positions so a setuid flip
// is a permissions change, not just a ctime ripple.
func permissionString(mode os.FileMode) string {
	bits := uint32(mode.Perm())
	if mode&os.ModeSetuid != 0 {
		bits |= 0o4000
	}
	if mode&os.ModeSetgid != 0 {
		bits |= 0o2000
	}
	if mode&os.ModeSticky != 0 {
		bits |= 0o1000
	}
	return fmt.Sprintf("%04o", bits)
}

func entryType(info os.FileInfo) models.EntryType {
	mode := info.Mode()
	switch {
	case mode.IsRegular():
		return models.EntryFile
	case mode.IsDir():
		return models.EntryDir
	case mode&os.ModeSymlink != 0:
		return models.EntrySymlink
	default:
		return models.EntryOther
	}
}
