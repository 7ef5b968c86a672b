// Package asset holds the persisted sound record and its lifecycle store:
// create, replace, delete, selection, and the portable data URI form the
// editor embeds in documents.
package asset
