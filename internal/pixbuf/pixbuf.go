// Package pixbuf normalizes decoded RGB planes into tightly packed buffers.
//
// Decoders may align rows for SIMD access, leaving padding bytes between
// them (stride > width*3). Rendering such a buffer as if it were packed
// produces diagonally sheared images, so the padding must be stripped
// before a frame leaves the decode layer.
package pixbuf

import "fmt"

const bytesPerPixel = 3 // packed RGB24

// Pack copies the RGB plane in src into a fresh, tightly packed buffer of
// exactly width*height*3 bytes. Rows in src start every stride bytes.
//
// When stride equals width*3 the plane is copied in one piece; otherwise
// rows are copied one by one, dropping the inter-row padding. The result
// never aliases src.
func Pack(src []byte, stride, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("pixbuf: invalid dimensions %dx%d", width, height)
	}
	rowBytes := width * bytesPerPixel
	if stride < rowBytes {
		return nil, fmt.Errorf("pixbuf: stride %d smaller than row size %d", stride, rowBytes)
	}
	// The last row needs no trailing padding.
	if need := stride*(height-1) + rowBytes; len(src) < need {
		return nil, fmt.Errorf("pixbuf: source buffer too short: have %d, need %d", len(src), need)
	}

	if stride == rowBytes {
		dst := make([]byte, height*rowBytes)
		copy(dst, src)
		return dst, nil
	}

	dst := make([]byte, 0, height*rowBytes)
	for y := 0; y < height; y++ {
		rowStart := y * stride
		dst = append(dst, src[rowStart:rowStart+rowBytes]...)
	}
	return dst, nil
}
