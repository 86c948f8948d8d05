package sliding

import (
	"unsafe"
)

const (
	sizeofSketchStruct  = int(unsafe.Sizeof(Sketch{}))
	sizeofCounterStruct = int(unsafe.Sizeof(Counter{}))
)
