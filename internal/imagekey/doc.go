// Package imagekey encodes and parses the identity of a captured image,
// `cam<label>image_<sequence>`, and derives the on-disk file names expected
// by MultiDIC.
package imagekey
