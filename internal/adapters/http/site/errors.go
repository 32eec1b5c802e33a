package site

import "errors"

var (
	// ErrParseTemplates is returned when the embedded page templates cannot be parsed.
	ErrParseTemplates = errors.New("site: parse templates")
	// ErrUnknownPage is returned when rendering a page that was never parsed.
	ErrUnknownPage = errors.New("site: unknown page")
)
