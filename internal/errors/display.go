package errors

import (
	"fmt"
	"strings"
)

// DisplayErrorSummary provides a brief summary of the error for logs
func DisplayErrorSummary(err error) string {
	var buildErr *BuildError
	if As(err, &buildErr) {
		return fmt.Sprintf("%s-%s: %s", buildErr.Category, buildErr.Code, buildErr.Message)
	}

	errStr := err.Error()
	if len(errStr) > 100 {
		return errStr[:97] + "..."
	}
	return errStr
}

// FormatForCLI formats an error for command-line display with proper spacing
func FormatForCLI(err error) string {
	var buildErr *BuildError
	if !As(err, &buildErr) {
		return fmt.Sprintf("\nError: %v\n", err)
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("\nError [%s-%s]\n", buildErr.Category, buildErr.Code))
	sb.WriteString(fmt.Sprintf("  %s\n", buildErr.Message))

	if buildErr.Operation != "" {
		sb.WriteString(fmt.Sprintf("\nFailed Operation: %s\n", buildErr.Operation))
	}

	if len(buildErr.Context) > 0 {
		sb.WriteString("\nDetails:\n")
		for _, key := range sortedKeys(buildErr.Context) {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", key, buildErr.Context[key]))
		}
	}

	if len(buildErr.Troubleshooting) > 0 {
		sb.WriteString("\nHow to resolve:\n")
		for i, step := range buildErr.Troubleshooting {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
		}
	}

	if buildErr.OriginalError != nil {
		sb.WriteString(fmt.Sprintf("\nTechnical details: %v\n", buildErr.OriginalError))
	}

	return sb.String()
}
