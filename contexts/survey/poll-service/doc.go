// Package pollservice owns the mutable poll aggregate inside the survey
// context.
//
// The module covers poll authoring (create/edit/delete, live question set
// mutation) and enforces that a question set covered by a release stays
// immutable until a newer version supersedes it. Snapshot packaging and
// response collection live in sibling services.
package pollservice
