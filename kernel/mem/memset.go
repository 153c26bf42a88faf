package mem

// Memset32 sets every element of target to value. Instead of using a for
// loop, the first element is set and then log2(len(target)) copy calls double
// the initialized prefix until the slice is filled.
func Memset32(target []uint32, value uint32) {
	if len(target) == 0 {
		return
	}

	target[0] = value
	for index := 1; index < len(target); index *= 2 {
		copy(target[index:], target[:index])
	}
}
