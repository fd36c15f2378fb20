package errors

import (
	stderrors "errors"
)

// As is re-exported so callers don't need both error packages imported.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *SiteError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *SiteError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration file invalid").
		WithContext("path", path)
}

// Content store errors

func ParseFailed(path string, cause error) *SiteError {
	return Wrap(cause, CategoryParse, SeverityError, "document header malformed").
		WithContext("path", path)
}

func ReadFailed(path string, cause error) *SiteError {
	return Wrap(cause, CategoryFileSystem, SeverityError, "read failed").
		WithContext("path", path)
}

// Renderer errors

func MissingLayout(docPath, layout string) *SiteError {
	return New(CategoryLayout, SeverityError, "layout not found").
		WithContext("path", docPath).
		WithContext("layout", layout)
}

func LayoutCycle(layout string) *SiteError {
	return New(CategoryLayout, SeverityFatal, "layout chain contains a cycle").
		WithContext("layout", layout)
}

func TemplateFailed(docPath, layout string, cause error) *SiteError {
	return Wrap(cause, CategoryTemplate, SeverityError, "template execution failed").
		WithContext("path", docPath).
		WithContext("layout", layout)
}

// Output errors

func WriteFailed(path string, cause error) *SiteError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "write failed").
		WithContext("path", path)
}

// Server errors

func ServerStartFailed(addr string, cause error) *SiteError {
	return Wrap(cause, CategoryServer, SeverityFatal, "preview server failed to start").
		WithContext("addr", addr)
}

// Deploy errors

func DeployFailed(branch string, cause error) *SiteError {
	return Wrap(cause, CategoryDeploy, SeverityFatal, "deploy failed").
		WithContext("branch", branch)
}
