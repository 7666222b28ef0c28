package core

import (
	"bytes"
	"encoding/ascii85"
	"encoding/hex"
	"fmt"

	"github.com/tsawler/pdfmin/internal/filters"
)

// Resolver resolves indirect references to the objects they name.
type Resolver interface {
	Resolve(obj Object) (Object, error)
}

// ResolveFilters returns a stream whose /Filter and /DecodeParms entries,
// and the elements of either when it is an array, are direct objects.
// The stream is returned unchanged when nothing needed resolving;
// otherwise the copy shares Data with s.
func (s *Stream) ResolveFilters(r Resolver) (*Stream, error) {
	var dict Dict
	for _, key := range []string{"Filter", "DecodeParms"} {
		obj := s.Dict.Get(key)
		if obj == nil {
			continue
		}
		resolved, changed, err := resolveEntry(obj, r)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", key, err)
		}
		if !changed {
			continue
		}
		if dict == nil {
			dict = s.Dict.Clone()
		}
		dict[key] = resolved
	}
	if dict == nil {
		return s, nil
	}
	return &Stream{Dict: dict, Data: s.Data}, nil
}

// resolveEntry resolves obj and, for arrays, each element.
func resolveEntry(obj Object, r Resolver) (Object, bool, error) {
	_, changed := obj.(IndirectRef)
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil, false, err
	}
	arr, ok := resolved.(Array)
	if !ok {
		return resolved, changed, nil
	}
	var out Array
	for i, elem := range arr {
		if _, isRef := elem.(IndirectRef); !isRef {
			continue
		}
		v, err := r.Resolve(elem)
		if err != nil {
			return nil, false, fmt.Errorf("element %d: %w", i, err)
		}
		if out == nil {
			out = append(Array(nil), arr...)
		}
		out[i] = v
	}
	if out != nil {
		return out, true, nil
	}
	return arr, changed, nil
}

// Filters returns the stream's filter chain in application order.
// A missing /Filter yields an empty slice.
func (s *Stream) Filters() ([]Name, error) {
	switch f := s.Dict.Get("Filter").(type) {
	case nil, Null:
		return nil, nil
	case Name:
		return []Name{f}, nil
	case Array:
		names := make([]Name, len(f))
		for i, obj := range f {
			name, ok := obj.(Name)
			if !ok {
				return nil, fmt.Errorf("filter %d is not a name: %T", i, obj)
			}
			names[i] = name
		}
		return names, nil
	default:
		return nil, fmt.Errorf("invalid Filter type: %T", f)
	}
}

// Decode decodes the stream data according to the Filter(s) specified in the
// stream dictionary. Image codecs (DCTDecode, JPXDecode, JBIG2Decode,
// CCITTFaxDecode) must be last in the chain; their payload is returned
// undecoded so that an image codec can interpret it.
func (s *Stream) Decode() ([]byte, error) {
	names, err := s.Filters()
	if err != nil {
		return nil, err
	}

	data := s.Data
	for i, name := range names {
		if IsImageFilter(name) {
			if i != len(names)-1 {
				return nil, fmt.Errorf("image filter %s is not last in chain", name)
			}
			break
		}
		data, err = decodeWithFilter(data, name, s.decodeParms(i))
		if err != nil {
			return nil, fmt.Errorf("filter %d (%s) failed: %w", i, name, err)
		}
	}
	return data, nil
}

// IsImageFilter reports whether the filter is an image codec whose output
// is pixels rather than bytes.
func IsImageFilter(name Name) bool {
	switch name {
	case "DCTDecode", "DCT", "JPXDecode", "JBIG2Decode", "CCITTFaxDecode", "CCF":
		return true
	}
	return false
}

// decodeParms returns the DecodeParms dictionary that applies to the
// i-th filter.
func (s *Stream) decodeParms(i int) Dict {
	switch p := s.Dict.Get("DecodeParms").(type) {
	case Dict:
		return p
	case Array:
		if d, ok := p.Get(i).(Dict); ok {
			return d
		}
	}
	return nil
}

// decodeWithFilter applies a single decompression filter to data.
func decodeWithFilter(data []byte, name Name, params Dict) ([]byte, error) {
	switch name {
	case "FlateDecode", "Fl":
		return filters.FlateDecode(data, dictToParams(params))
	case "ASCIIHexDecode", "AHx":
		return asciiHexDecode(data)
	case "ASCII85Decode", "A85":
		return ascii85Decode(data)
	case "LZWDecode", "LZW", "RunLengthDecode", "RL", "Crypt":
		return nil, fmt.Errorf("%s not supported", name)
	default:
		return nil, fmt.Errorf("unknown filter: %s", name)
	}
}

// asciiHexDecode ignores whitespace, stops at '>' and pads an odd
// trailing digit with zero.
func asciiHexDecode(data []byte) ([]byte, error) {
	digits := make([]byte, 0, len(data))
	for _, c := range data {
		if c == '>' {
			break
		}
		if isSpace(c) {
			continue
		}
		digits = append(digits, c)
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	if _, err := hex.Decode(out, digits); err != nil {
		return nil, err
	}
	return out, nil
}

func ascii85Decode(data []byte) ([]byte, error) {
	data = bytes.TrimSpace(data)
	data = bytes.TrimPrefix(data, []byte("<~"))
	if i := bytes.Index(data, []byte("~>")); i >= 0 {
		data = data[:i]
	}
	out := make([]byte, 4*len(data)+4)
	n, _, err := ascii85.Decode(out, data, true)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

// dictToParams converts a core.Dict to filters.Params, translating PDF object
// types to Go primitive types.
func dictToParams(dict Dict) filters.Params {
	if dict == nil {
		return nil
	}
	params := make(filters.Params, len(dict))
	for k, v := range dict {
		switch obj := v.(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case Name:
			params[k] = string(obj)
		}
	}
	return params
}
