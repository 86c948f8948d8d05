package sizeof

import "unsafe"

const (
	Int64 = int(unsafe.Sizeof(int64(0)))
)
