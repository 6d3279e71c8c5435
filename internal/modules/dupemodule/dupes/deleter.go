package dupes

import "os"

// OSDeleter removes files from the local filesystem.
type OSDeleter struct{}

// Delete removes the file at path.
func (OSDeleter) Delete(path string) error {
	return os.Remove(path)
}
