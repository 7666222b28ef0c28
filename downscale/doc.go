// Package downscale decides which PDF images are stored at a higher
// resolution than they are displayed at, and resamples them down to a
// target resolution.
//
// The work is split into small parts that [Run] wires together:
//
//   - [Tracker] folds draw events into the largest placed size per image.
//     The fold is a component-wise maximum, so page order does not matter
//     and per-page trackers can be merged.
//   - [ResolveDPI] turns pixel dimensions and a placed size in
//     millimetres into an effective resolution, taking the smaller axis.
//   - [PlanScale] computes min(target/current, 1). Images are never
//     enlarged.
//   - [Rescaler] resamples through a [Codec], records byte savings and
//     substitutes the replacement into an [ObjectTable] under the
//     original object identity.
//
// A typical run:
//
//	report, err := downscale.Run(ctx, downscale.Input{
//	    Pages: pages,
//	    Table: doc,
//	}, downscale.Settings{TargetDPI: 150})
//	fmt.Println(report.Savings)
//
// Images without /Width or /Height, images placed with a zero-area
// transform and images already at or below the target are skipped and
// listed in [Report.Skipped]. Savings count only images that were
// actually resampled.
package downscale
