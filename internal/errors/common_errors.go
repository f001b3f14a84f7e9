package errors

import (
	"fmt"
	"sort"
)

// Common error codes
const (
	CodeConfigParse   = "001"
	CodeConfigDecode  = "002"
	CodeUnknownTask   = "003"
	CodeConfigInvalid = "004"

	CodeLockRead  = "001"
	CodeLockWrite = "002"
	CodeLockBusy  = "003"

	CodeRunStalled   = "001"
	CodeRunCancelled = "002"
)

// NewUnknownTaskError creates an error for a task name that was never declared
func NewUnknownTaskError(name, operation string) *BuildError {
	return NewConfigError(CodeUnknownTask,
		fmt.Sprintf("Task '%s' is not declared", name),
		operation).
		WithContext("task", name).
		WithTroubleshooting(
			"Check the task name for typos",
			"Run 'barista graph' to list the declared tasks",
			"Make sure every depends_on block names a declared task",
		)
}

// NewConfigParseError creates an error for a project file that cannot be parsed
func NewConfigParseError(path string, originalErr error) *BuildError {
	return NewConfigError(CodeConfigParse,
		fmt.Sprintf("Failed to parse project file '%s'", path),
		"Project file loading").
		WithContext("file", path).
		WithOriginalError(originalErr).
		WithTroubleshooting(
			"Check the HCL syntax around the reported line",
			"Make sure every block is closed",
		)
}

// NewConfigDecodeError creates an error for a project file with unexpected content
func NewConfigDecodeError(path string, originalErr error) *BuildError {
	return NewConfigError(CodeConfigDecode,
		fmt.Sprintf("Failed to decode project file '%s'", path),
		"Project file loading").
		WithContext("file", path).
		WithOriginalError(originalErr).
		WithTroubleshooting(
			"Top level blocks are 'gem' and 'task'; attributes are 'name' and 'workers'",
			"Step kinds are 'command', 'copy' and 'mkdir'",
		)
}

// NewLockFileError creates an error for a lock snapshot that cannot be read or written
func NewLockFileError(code, path string, originalErr error) *BuildError {
	return NewLockError(code,
		fmt.Sprintf("Lock snapshot '%s' is not usable", path),
		"Lock snapshot access").
		WithContext("file", path).
		WithOriginalError(originalErr).
		WithTroubleshooting(
			"Delete the lock file to force a full rebuild ordering",
			"Make sure no other barista process holds the lock",
		)
}

// NewStalledRunError creates an error for a run that can make no progress
func NewStalledRunError(blocked []string) *BuildError {
	return NewRunBuildError(CodeRunStalled,
		"No task is ready to run but the build is incomplete",
		"Task scheduling").
		WithContext("blocked", blocked).
		WithTroubleshooting(
			"Check that every dependency of the blocked tasks is part of the build",
		)
}

// NewCancelledRunError creates an error for a run stopped by its context
func NewCancelledRunError(remaining []string, originalErr error) *BuildError {
	return NewRunBuildError(CodeRunCancelled,
		"The build was cancelled before all tasks were built",
		"Task scheduling").
		WithContext("remaining", remaining).
		WithOriginalError(originalErr)
}

// IsUserError determines if an error is due to user input/configuration
func IsUserError(err error) bool {
	var buildErr *BuildError
	if As(err, &buildErr) {
		return buildErr.Category == ErrorCategoryConfiguration ||
			buildErr.Category == ErrorCategoryArgument
	}
	var argErr *UnsupportedArgumentError
	return As(err, &argErr)
}

// GetErrorCode extracts the error code for reporting
func GetErrorCode(err error) string {
	var buildErr *BuildError
	if As(err, &buildErr) {
		return fmt.Sprintf("%s-%s", buildErr.Category, buildErr.Code)
	}
	return "UNKNOWN"
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
