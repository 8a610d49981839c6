// Package merge parses preserved regions out of generated documents and
// merges freshly rendered content into an existing file without losing the
// text users wrote inside those regions.
//
// A region is a pair of marker lines, REGION:name and /REGION:name, which may
// be wrapped in an HTML, hash or slash comment. Regions may nest; merging
// always works on the outermost region that both documents share.
package merge
