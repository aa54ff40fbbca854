package tray

import (
	"bytes"
	"encoding/binary"
)

const iconSize = 16

// Icon returns a 16x16 32-bit ICO with a filled disc.
func Icon() []byte {
	const (
		headerLen = 6 + 16
		dibLen    = 40
		pixelLen  = iconSize * iconSize * 4
		maskLen   = iconSize * 4 // 1bpp rows padded to 32 bits
	)

	var buf bytes.Buffer
	w := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	// ICONDIR
	w(uint16(0))
	w(uint16(1))
	w(uint16(1))
	// ICONDIRENTRY
	buf.WriteByte(iconSize)
	buf.WriteByte(iconSize)
	buf.WriteByte(0)
	buf.WriteByte(0)
	w(uint16(1))
	w(uint16(32))
	w(uint32(dibLen + pixelLen + maskLen))
	w(uint32(headerLen))
	// BITMAPINFOHEADER, height doubled for the AND mask
	w(uint32(dibLen))
	w(int32(iconSize))
	w(int32(iconSize * 2))
	w(uint16(1))
	w(uint16(32))
	w(uint32(0))
	w(uint32(pixelLen + maskLen))
	w(int32(0))
	w(int32(0))
	w(uint32(0))
	w(uint32(0))

	// Pixels are BGRA, bottom-up.
	const center = (iconSize - 1) / 2.0
	for y := iconSize - 1; y >= 0; y-- {
		for x := 0; x < iconSize; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			if dx*dx+dy*dy <= 7*7 {
				buf.Write([]byte{0x3c, 0xb8, 0x2f, 0xff})
			} else {
				buf.Write([]byte{0, 0, 0, 0})
			}
		}
	}
	buf.Write(make([]byte, maskLen))
	return buf.Bytes()
}
