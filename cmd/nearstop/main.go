package main

import (
	"errors"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/viant/nearstop/config"
	"github.com/viant/nearstop/internal/logger"
)

// Options holds global flags and the subcommands.
type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"NEARSTOP_CONFIG" description:"Path to YAML configuration file"`

	Join  JoinCommand  `command:"join"  description:"Attach the nearest stop to every building"`
	Index IndexCommand `command:"index" description:"Build a stop index and store it in SQLite"`
	Serve ServeCommand `command:"serve" description:"Serve nearest stop queries over HTTP"`
	SQL   SQLCommand   `command:"sql"   description:"Query a stored index through SQL"`
}

// config loads the configuration file, or the defaults when none is given.
func (o *Options) config() (*config.Config, error) {
	if o.ConfigFile == "" {
		return config.Default(), nil
	}
	return config.Load(o.ConfigFile)
}

func newParser(opts *Options) *flags.Parser {
	opts.Join.global = opts
	opts.Index.global = opts
	opts.Serve.global = opts
	opts.SQL.global = opts
	parser := flags.NewParser(opts, flags.Default)
	parser.CommandHandler = func(command flags.Commander, args []string) error {
		opts.Logger.Setup()
		if command == nil {
			return nil
		}
		return command.Execute(args)
	}
	return parser
}

func main() {
	_ = godotenv.Load(".env")

	var opts Options
	parser := newParser(&opts)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Command failed")
	}
}
