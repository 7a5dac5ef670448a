package mas

import (
	"unsafe"
)

func engineSize(e *Engine) uint {
	memoryUsage := int(unsafe.Sizeof(*e))
	memoryUsage += cap(e.voices) * int(unsafe.Sizeof(activeChannel{}))
	memoryUsage += cap(e.mixers) * int(unsafe.Sizeof(mixerChannel{}))
	for i := range e.layers {
		memoryUsage += cap(e.layers[i].channels) * int(unsafe.Sizeof(moduleChannel{}))
	}
	memoryUsage += (cap(e.front) + cap(e.back)) * 2
	memoryUsage += cap(e.mixBuf) * 4

	return uint(memoryUsage)
}
