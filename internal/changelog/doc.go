// Package changelog turns reconciled items into the final document and
// writes it out.
//
// This package implements:
//   - Template rendering with text/template and sprig functions
//   - The bundled default Markdown template via go:embed
//   - Optional Markdown to HTML conversion with goldmark
//   - Output to stdout, or prepending to an existing changelog file
//   - A colored terminal summary of what went into the document
package changelog
