package audio

// int16ToBytesLE packs samples into b as 16-bit little-endian PCM.
// b must hold len(s)*2 bytes.
func int16ToBytesLE(s []int16, b []byte) {
	for i, v := range s {
		b[2*i] = byte(v)
		b[2*i+1] = byte(v >> 8)
	}
}

// bytesToInt16LE unpacks 16-bit little-endian PCM from b into s.
// s must hold len(b)/2 samples.
func bytesToInt16LE(b []byte, s []int16) {
	for i := range s {
		s[i] = int16(b[2*i]) | int16(b[2*i+1])<<8
	}
}
