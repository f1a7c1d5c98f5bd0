// Package requirements parses and validates flat dependency manifests in
// the style of pip's requirements.txt: one "<name><operator><version>"
// specifier per line, "#" comments and blank lines ignored.
//
// The format is deliberately narrower than pip's. Extras ("name[extra]"),
// environment markers ("; python_version ...") and URL specifiers are
// rejected. Versions are plain dot-separated integers with segment-wise
// numeric comparison, so "1.0" and "1.0.0" are the same version. Package
// names compare case-insensitively with "-", "_" and "." treated as the
// same separator.
//
// Duplicate declarations of one package merge into a ConstraintSet;
// Validate reports duplicates whose merged constraints no version could
// ever satisfy, such as "==1.0.0" together with "==2.0.0".
package requirements
