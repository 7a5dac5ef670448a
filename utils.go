package mas

type numeric interface {
	uint8 | uint16 | uint32 | uint64 | int | int32 | int64 | float64
}

func clampMin[T numeric](v, min T) T {
	if v < min {
		return min
	}
	return v
}

func clampMax[T numeric](v, max T) T {
	if v > max {
		return max
	}
	return v
}

func clamp[T numeric](v, min, max T) T {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// saturate16 clips a mixed sample to the int16 range.
func saturate16(v int32) int16 {
	return int16(clamp(v, -32768, 32767))
}

func putPCM(b []byte, left, right int16) {
	b[0] = byte(uint16(left))
	b[1] = byte(uint16(left) >> 8)
	b[2] = byte(uint16(right))
	b[3] = byte(uint16(right) >> 8)
}
