// Package errors provides classified error primitives used across postbuilder.
//
// A ClassifiedError carries a category (config, content, query, render...),
// a severity and a retry strategy next to the message and cause. The CLI
// adapter turns the category into a process exit code.
//
// Example usage:
//
//	err := errors.ContentError("frontmatter is not terminated").
//		WithContext("path", path).
//		WithCause(frontmatter.ErrMissingClosingDelimiter).
//		Build()
package errors
