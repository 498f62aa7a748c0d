package utils

import "os"

// PathExists reports whether path exists. Errors other than "does not
// exist" are returned as-is.
func PathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// FileStamp is what changes when a file is rewritten or replaced.
type FileStamp struct {
	ModTime int64
	Size    int64
	Ino     uint64
}

// Stamp stats path.
func Stamp(path string) (FileStamp, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return FileStamp{}, err
	}
	return stampOf(fi), nil
}
