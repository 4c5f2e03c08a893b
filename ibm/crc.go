package ibm

// CRC16-CCITT, polynomial 0x1021. The seeds fold in the bytes that precede
// the checked fields on disk: from an initial 0xFFFF, 0xcdb4 is the CRC
// state after A1 A1 A1 and 0xb230 after A1 A1 A1 FE.
const (
	headerCRCSeed = 0xb230
	dataCRCSeed   = 0xcdb4
)

func crc16Byte(crc uint16, b byte) uint16 {
	crc ^= uint16(b) << 8
	for i := 0; i < 8; i++ {
		if crc&0x8000 != 0 {
			crc = crc<<1 ^ 0x1021
		} else {
			crc <<= 1
		}
	}
	return crc
}

func crc16(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc = crc16Byte(crc, b)
	}
	return crc
}
