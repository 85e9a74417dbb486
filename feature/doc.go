// Package feature turns image files into local descriptors for vocabulary
// training and database queries.
//
// Images are decoded with the standard library decoders (PNG, JPEG, GIF) and
// golang.org/x/image (BMP, TIFF, WebP). DenseExtractor samples patches on a
// regular grid and describes each with a 128-element histogram of gradient
// orientations (4x4 cells of 8 bins), the layout of SIFT descriptors, so
// the result can be fed to a vocabulary trained on real-valued descriptors.
//
//	paths, _ := feature.ListImages("images/")
//	descs, _ := feature.ExtractAll(ctx, paths, feature.DefaultDenseExtractor(), 0)
package feature
