package auth

import "github.com/lumen-media/lumen-server/apikeys"

// IsGranted reports whether every requested permission is contained in the
// current set. A current set holding the wildcard grants everything; an empty
// requested set is trivially granted. Evaluation uses true set semantics:
// duplicates and order are irrelevant.
func IsGranted(requested, current []apikeys.Permission) bool {
	granted := make(map[apikeys.Permission]struct{}, len(current))
	for _, p := range current {
		if p == apikeys.PermissionAll {
			return true
		}
		granted[p] = struct{}{}
	}

	for _, p := range requested {
		if _, ok := granted[p]; !ok {
			return false
		}
	}
	return true
}
