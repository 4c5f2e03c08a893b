package bitstream

// FindSync scans for an exact match of an encoding-specific sync pattern,
// starting at the given bit offset. The bit immediately following the
// pattern must be 0, which rejects false matches straddling doubled sync
// words. Returns the bit offset of the first match, or -1.
func FindSync(bs *Bitstream, pattern uint32, patternLen int, start int) int {
	if start < 0 {
		start = 0
	}
	end := bs.Len()
	mask := uint32(1)<<patternLen - 1

	var window uint32
	for i := start; i < end; i++ {
		window = (window<<1 | uint32(bs.Bit(i))) & mask
		if i-start+1 < patternLen || window != pattern {
			continue
		}
		if i+1 >= end {
			// Pattern at the very end: the disambiguation bit is missing.
			return -1
		}
		if bs.Bit(i+1) == 0 {
			return i - patternLen + 1
		}
	}
	return -1
}
