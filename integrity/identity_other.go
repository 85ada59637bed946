//go:build !unix

package integrity

// The owner-resolution capability is absent off unix; the fingerprinter
// falls back to the current process user.
func newIdentityResolver() IdentityResolver {
	return nil
}
