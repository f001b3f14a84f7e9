package main

import (
	"fmt"
	"os"

	"github.com/maxkimambo/barista/cmd"
	"github.com/maxkimambo/barista/internal/errors"
	"github.com/maxkimambo/barista/internal/logger"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errors.FormatForCLI(err))
		if !errors.IsUserError(err) {
			logger.Op.With(logger.Field{Key: "code", Value: errors.GetErrorCode(err)}).
				Debugf("%s", errors.ErrorWithStackTrace(err))
		}
		os.Exit(1)
	}
}
