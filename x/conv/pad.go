package conv

// UtoaPad writes base-10 representation of n into buf, left-padded with
// zeros to width. If the value needs more digits than width, all digits are
// kept. buf should be length >= max(width, 20).
func UtoaPad(buf []byte, n uint64, width int) []byte {
	if len(buf) == 0 {
		return buf[:0]
	}
	i := len(buf)
	if n == 0 {
		i--
		buf[i] = '0'
	} else {
		for n > 0 && i > 0 {
			i--
			buf[i] = byte('0' + (n % 10))
			n /= 10
		}
	}
	for len(buf)-i < width && i > 0 {
		i--
		buf[i] = '0'
	}
	return buf[i:]
}
