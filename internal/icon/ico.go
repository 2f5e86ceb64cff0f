package icon

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
)

// ICO container layout (little-endian):
//
//	ICONDIR:      reserved uint16, type uint16 (1 = icon), count uint16
//	ICONDIRENTRY: width byte, height byte, colors byte, reserved byte,
//	              planes uint16, bitcount uint16,
//	              size uint32, offset uint32
//
// Entries are PNG-encoded, which every platform since Windows Vista
// accepts and which keeps this encoder tiny.
const (
	icoHeaderSize = 6
	icoEntrySize  = 16
)

// encodeICO builds a multi-size .ico from the logo, one PNG entry per
// requested edge length.
func encodeICO(logo image.Image, sizes []int) ([]byte, error) {
	if len(sizes) == 0 {
		return nil, errors.New("ico: no sizes requested")
	}

	entries := make([][]byte, 0, len(sizes))
	for _, size := range sizes {
		if size <= 0 || size > 256 {
			return nil, errors.New("ico: entry size must be between 1 and 256")
		}
		data, err := encodePNG(scale(logo, size))
		if err != nil {
			return nil, err
		}
		entries = append(entries, data)
	}

	var buf bytes.Buffer
	hdr := []uint16{0, 1, uint16(len(sizes))}
	for _, v := range hdr {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}

	offset := uint32(icoHeaderSize + icoEntrySize*len(sizes))
	for i, size := range sizes {
		dim := byte(size)
		if size == 256 {
			dim = 0 // 256 is encoded as 0
		}
		buf.WriteByte(dim) // width
		buf.WriteByte(dim) // height
		buf.WriteByte(0)   // palette colors
		buf.WriteByte(0)   // reserved
		if err := binary.Write(&buf, binary.LittleEndian, uint16(1)); err != nil { // planes
			return nil, err
		}
		if err := binary.Write(&buf, binary.LittleEndian, uint16(32)); err != nil { // bits per pixel
			return nil, err
		}
		if err := binary.Write(&buf, binary.LittleEndian, uint32(len(entries[i]))); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.LittleEndian, offset); err != nil {
			return nil, err
		}
		offset += uint32(len(entries[i]))
	}

	for _, data := range entries {
		buf.Write(data)
	}

	return buf.Bytes(), nil
}
