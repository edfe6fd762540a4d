package layout

// CRC is the X.25 checksum (CRC-16/MCRF4XX) MAVLink uses for frames and
// for crc_extra: seed 0xFFFF, no final xor.
type CRC uint16

// NewCRC returns a CRC holding the seed value.
func NewCRC() CRC {
	return 0xFFFF
}

// AddByte accumulates one byte.
func (c *CRC) AddByte(b byte) {
	tmp := b ^ byte(*c&0xFF)
	tmp ^= tmp << 4
	*c = (*c >> 8) ^ CRC(tmp)<<8 ^ CRC(tmp)<<3 ^ CRC(tmp)>>4
}

// Write accumulates p. It never fails.
func (c *CRC) Write(p []byte) (int, error) {
	for _, b := range p {
		c.AddByte(b)
	}
	return len(p), nil
}

// WriteString accumulates the bytes of s.
func (c *CRC) WriteString(s string) {
	for i := 0; i < len(s); i++ {
		c.AddByte(s[i])
	}
}

// Fold reduces the checksum to the single crc_extra byte.
func (c CRC) Fold() uint8 {
	return uint8(c&0xFF) ^ uint8(c>>8)
}
