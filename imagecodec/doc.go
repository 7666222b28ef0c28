// Package imagecodec decodes PDF image XObjects, resamples them and
// re-encodes them in their original format.
//
// [Inspect] turns an image stream into a [Resource] describing its pixel
// size, colour components and storage [Format]. [Codec.Rescale] produces
// a replacement stream of an exact pixel size:
//
//	res, err := imagecodec.Inspect(ref, obj, doc)
//	if err := res.Supported(); err != nil {
//	    // skip
//	}
//	codec := imagecodec.NewCodec(imagecodec.KernelLanczos, 85)
//	stream, err := codec.Rescale(res, 591, 295)
//
// JPEG images are decoded with image/jpeg and re-encoded at the codec's
// quality. Flate and unfiltered images are resampled one colour
// component at a time, so Gray, RGB, CMYK, Lab and DeviceN samples all
// keep their colour space. Flate output is written without a predictor.
//
// Resampling uses github.com/disintegration/imaging for the Lanczos,
// linear and box kernels and golang.org/x/image/draw for Catmull-Rom.
//
// JPX, JBIG2 and CCITT images, image masks, indexed images, images with
// a /Decode array and images with other than 8 bits per component are
// reported as [ErrUnsupported].
package imagecodec
