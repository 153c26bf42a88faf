package mem

import "testing"

func TestMemset32(t *testing.T) {
	// Memset32 with an empty slice should be a no-op
	Memset32(nil, 0xff)

	for _, size := range []int{1, 2, 3, 7, 64, 1000} {
		buf := make([]uint32, size)
		Memset32(buf, 0xc0ffee)

		for i, v := range buf {
			if v != 0xc0ffee {
				t.Errorf("[size %d] expected element %d to be 0xc0ffee; got 0x%x", size, i, v)
				break
			}
		}
	}
}
