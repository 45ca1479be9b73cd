// Package types defines the Library and Collection interfaces, the content
// entities served by the dashboard, and the standard errors shared by every
// storage backend.
package types
