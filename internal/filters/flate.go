package filters

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Params represents decode parameters from PDF stream dictionaries.
// Common parameters include Predictor, Columns, Colors, and BitsPerComponent.
type Params map[string]interface{}

// Compression levels accepted by FlateEncode.
const (
	DefaultCompression = zlib.DefaultCompression
	BestCompression    = zlib.BestCompression
)

// FlateDecode decompresses Flate (zlib/deflate) compressed data and
// undoes the predictor named in params, if any.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		// Truncated streams are common; keep what was recovered.
		if err != io.ErrUnexpectedEOF || buf.Len() == 0 {
			return nil, fmt.Errorf("zlib decompression failed: %w", err)
		}
	}

	predictor := getIntParam(params, "Predictor", 1)
	if predictor == 1 {
		return buf.Bytes(), nil
	}
	out, err := applyPredictor(buf.Bytes(), predictor, params)
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}
	return out, nil
}

// FlateEncode compresses data at the given zlib level. No predictor is
// applied, so the result needs no DecodeParms.
func FlateEncode(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("zlib compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib compression failed: %w", err)
	}
	return buf.Bytes(), nil
}

// applyPredictor undoes TIFF predictor 2 or the PNG predictors 10-15.
func applyPredictor(data []byte, predictor int, params Params) ([]byte, error) {
	colors := getIntParam(params, "Colors", 1)
	columns := getIntParam(params, "Columns", 1)
	if bpc := getIntParam(params, "BitsPerComponent", 8); bpc != 8 {
		return nil, fmt.Errorf("only 8 bits per component supported, got %d", bpc)
	}
	if colors < 1 || columns < 1 {
		return nil, fmt.Errorf("invalid Colors/Columns %d/%d", colors, columns)
	}

	switch {
	case predictor == 2:
		return undoTIFF(data, colors, columns*colors)
	case predictor >= 10 && predictor <= 15:
		return undoPNG(data, colors, columns*colors)
	}
	return nil, fmt.Errorf("unsupported predictor: %d", predictor)
}

func undoTIFF(data []byte, bpp, rowLen int) ([]byte, error) {
	if len(data)%rowLen != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), rowLen)
	}
	out := append([]byte(nil), data...)
	for row := 0; row < len(out); row += rowLen {
		for i := row + bpp; i < row+rowLen; i++ {
			out[i] += out[i-bpp]
		}
	}
	return out, nil
}

// undoPNG reverses PNG row filtering. Each input row carries a leading
// filter type byte (0 None, 1 Sub, 2 Up, 3 Average, 4 Paeth).
func undoPNG(data []byte, bpp, rowLen int) ([]byte, error) {
	stride := rowLen + 1
	if len(data)%stride != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), stride)
	}
	rows := len(data) / stride
	out := make([]byte, rows*rowLen)
	prev := make([]byte, rowLen)

	for r := 0; r < rows; r++ {
		ft := data[r*stride]
		src := data[r*stride+1 : (r+1)*stride]
		cur := out[r*rowLen : (r+1)*rowLen]
		for i := range cur {
			var left, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]
			switch ft {
			case 0:
				cur[i] = src[i]
			case 1:
				cur[i] = src[i] + left
			case 2:
				cur[i] = src[i] + up
			case 3:
				cur[i] = src[i] + byte((int(left)+int(up))/2)
			case 4:
				cur[i] = src[i] + paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown PNG filter type %d in row %d", ft, r)
			}
		}
		prev = cur
	}
	return out, nil
}

// paeth implements the Paeth predictor from the PNG specification.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

// getIntParam extracts an integer parameter from Params, returning defaultValue
// if the parameter is missing or cannot be converted to an integer.
func getIntParam(params Params, key string, defaultValue int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return defaultValue
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
