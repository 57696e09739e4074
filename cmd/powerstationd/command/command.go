// Package command builds the powerstationd CLI application, following
// the cli.NewApp()-plus-package-level-flag-vars shape of gpud's
// cmd/gpud/command package.
package command

import (
	"github.com/urfave/cli"

	"github.com/ShadowBlip/PowerStation/internal/daemon"
)

const usage = `
# start powerstationd with the built-in defaults
sudo powerstationd run

# start it against a specific config file and a non-default debug port
sudo powerstationd run --config /etc/powerstation/powerstation.toml --debug-addr 127.0.0.1:9191
`

var (
	configFilePath     string
	logLevel           string
	logPretty          bool
	logFilePath        string
	debugAddr          string
	debugOff           bool
	hardwareProfileDir string
)

// App builds the powerstationd cli.App.
func App() *cli.App {
	app := cli.NewApp()

	app.Name = "powerstationd"
	app.Version = daemon.Version
	app.Usage = "expose CPU and GPU power-management controls over a local object bus"
	app.Description = usage

	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "discover hardware and run the daemon in the foreground",
			Action: cmdRun,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "config",
					Usage:       "path to a powerstation.toml config file",
					Destination: &configFilePath,
				},
				cli.StringFlag{
					Name:        "log-level",
					Usage:       "zap log level (debug, info, warn, error)",
					Destination: &logLevel,
				},
				cli.BoolFlag{
					Name:        "log-pretty",
					Usage:       "use the human-readable console log encoder instead of JSON",
					Destination: &logPretty,
				},
				cli.StringFlag{
					Name:        "log-file",
					Usage:       "path to a rotating log file; logs to stdout when unset",
					Destination: &logFilePath,
				},
				cli.StringFlag{
					Name:        "debug-addr",
					Usage:       "loopback address the debug/metrics HTTP surface listens on",
					Destination: &debugAddr,
				},
				cli.BoolFlag{
					Name:        "debug-off",
					Usage:       "disable the debug/metrics HTTP surface entirely",
					Destination: &debugOff,
				},
				cli.StringFlag{
					Name:        "hardware-profile-dir",
					Usage:       "directory containing the AMD/Intel/DMI-override hardware profile TOML databases",
					Destination: &hardwareProfileDir,
				},
			},
		},
	}

	return app
}
