package command

import (
	"github.com/urfave/cli"

	"github.com/ShadowBlip/PowerStation/internal/config"
	"github.com/ShadowBlip/PowerStation/internal/daemon"
)

func cmdRun(c *cli.Context) error {
	var opts []config.OpOption
	if logLevel != "" {
		opts = append(opts, config.WithLogLevel(logLevel))
	}
	if logPretty {
		opts = append(opts, config.WithLogPretty(true))
	}
	if logFilePath != "" {
		opts = append(opts, config.WithLogFilePath(logFilePath))
	}
	if debugAddr != "" {
		opts = append(opts, config.WithDebugServerAddr(debugAddr))
	}
	if hardwareProfileDir != "" {
		opts = append(opts, config.WithHardwareProfileDir(hardwareProfileDir))
	}

	cfg, err := config.Load(configFilePath, opts...)
	if err != nil {
		return err
	}
	if debugOff {
		cfg.DebugServerOff = true
	}

	return daemon.Run(cfg)
}
