// Package filters implements the PDF Flate stream filter.
//
// Decoding undoes the optional predictor given in the stream's
// DecodeParms:
//   - 1: No prediction (default)
//   - 2: TIFF Predictor 2
//   - 10-15: PNG predictors (None, Sub, Up, Average, Paeth)
//
//	decoded, err := filters.FlateDecode(data, filters.Params{
//	    "Predictor": 12,
//	    "Columns":   100,
//	    "Colors":    3,
//	})
//
// Encoding never applies a predictor:
//
//	encoded, err := filters.FlateEncode(pixels, zlib.BestCompression)
package filters
