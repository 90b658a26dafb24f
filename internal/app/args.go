package app

import (
	"os"
	"strings"

	"github.com/nimasrn/reddit-matchbot/pkg/logger"
)

// EnvPathFromArgs returns the dotenv path passed as --env=<path>, or "" when
// the flag is absent or the file cannot be found.
func EnvPathFromArgs(args []string) string {
	for _, v := range args {
		if !strings.HasPrefix(v, "--env=") {
			continue
		}
		path := strings.TrimPrefix(v, "--env=")
		if _, err := os.Stat(path); err != nil {
			logger.Error("failed to open the passed env file, got error " + err.Error())
			return ""
		}
		return path
	}
	return ""
}
