// Package catalog loads the set of document templates a run generates. A
// catalog is a directory holding catalog.yaml plus template sources; the
// default catalog is embedded in the binary, and a directory on disk can
// replace it. Every template is parsed and checked against the fact schema
// when the catalog loads, so authoring errors stop a run before it starts.
package catalog
