package utils

import (
	"os"
	"syscall"
)

func stampOf(fi os.FileInfo) FileStamp {
	s := FileStamp{ModTime: fi.ModTime().UnixNano(), Size: fi.Size()}
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		s.Ino = uint64(st.Ino)
	}
	return s
}
