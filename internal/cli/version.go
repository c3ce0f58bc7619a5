package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

// VersionInfo — версия CLI и среды сборки.
type VersionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// NewVersionCmd создаёт команду вывода версии.
func NewVersionCmd(version string, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := VersionInfo{
				Version:   version,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}
			return outputFn().Print(
				[]string{"Version", "Go", "Platform"},
				[][]string{{info.Version, info.GoVersion, info.Platform}},
				info,
			)
		},
	}
}
