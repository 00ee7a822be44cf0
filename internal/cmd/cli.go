// Package cmd holds the zxbridge CLI commands.
package cmd

// LogConfig is the logging surface shared by all commands.
type LogConfig struct {
	Level     string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"ZXBRIDGE_LOG_LEVEL"`
	File      string `help:"Write logs to this file instead of the console" env:"ZXBRIDGE_LOG_FILE"`
	TraceFile string `help:"Write raw feed frame traces to this file" env:"ZXBRIDGE_TRACE_FILE"`
}

// CLI is the root command tree.
type CLI struct {
	ConfigPath string    `name:"config" help:"Path to a configuration file" env:"ZXBRIDGE_CONFIG"`
	Log        LogConfig `embed:"" prefix:"log."`

	Run     Run           `cmd:"" help:"Run the bridge daemon: feed listener, idle loop, and strobe responder"`
	Console Console       `cmd:"" help:"Drive an in-process bridge from the terminal and watch the matrix"`
	Config  ConfigCommand `cmd:"" help:"Configuration utilities"`
}
