// Package schema compiles embedded JSON Schemas and validates JSON or YAML
// documents against them, flattening validator output into path-addressed
// issues. The workflow manifest and the template catalog index both use it.
package schema
