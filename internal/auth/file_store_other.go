//go:build !unix

package auth

import "os"

// checkPrivateDir has no owner or mode bits to inspect here; the user
// profile directories are already private
func checkPrivateDir(os.FileInfo) error {
	return nil
}
