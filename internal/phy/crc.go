package phy

// Mode S CRC-24 generator polynomial, 25 bits MSB first.
const generatorPoly uint32 = 0x1FFF409

const crcBits = 24

var generatorBits [crcBits + 1]byte

func init() {
	for i := 0; i <= crcBits; i++ {
		generatorBits[i] = byte(generatorPoly>>(crcBits-i)) & 1
	}
}

// Checksum computes the Mode S CRC remainder over a byte-per-bit message
// whose final 24 bits carry the parity field. A zero remainder means the
// message validates. The computation carries no state between calls.
func Checksum(bits []byte) uint32 {
	if len(bits) <= crcBits {
		return 0xFFFFFF
	}

	work := make([]byte, len(bits))
	copy(work, bits)

	for i := 0; i+crcBits < len(work); i++ {
		if work[i] == 0 {
			continue
		}
		for j := 0; j <= crcBits; j++ {
			work[i+j] ^= generatorBits[j]
		}
	}

	var rem uint32
	for _, b := range work[len(work)-crcBits:] {
		rem = rem<<1 | uint32(b&1)
	}
	return rem
}

// Parity computes the 24-bit parity field for the payload bits of a
// message (everything ahead of the parity field).
func Parity(payload []byte) uint32 {
	padded := make([]byte, len(payload)+crcBits)
	copy(padded, payload)
	return Checksum(padded)
}
