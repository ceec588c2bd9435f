//go:build windows

package storage

import "os"

// renameio does not support Windows; the write is not atomic there.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}
