package main

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// keyUpdateFile is only read by the command, not by internal/config.
const keyUpdateFile = "update_file"

// bindFlags binds each flag to its viper key so that a flag given on the
// command line wins over environment and config file.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			return errors.Errorf("unknown flag %q", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.Wrapf(err, "binding flag %q", name)
		}
	}
	return nil
}

// routePrinter logs gin's route registrations, which gin prints to stdout
// in debug mode otherwise.
func routePrinter(log zerolog.Logger) func(httpMethod, absolutePath, handlerName string, nuHandlers int) {
	return func(httpMethod, absolutePath, handlerName string, nuHandlers int) {
		log.Debug().
			Str("method", httpMethod).
			Str("path", absolutePath).
			Str("handler", handlerName).
			Int("handlers", nuHandlers).
			Msg("Route registered")
	}
}
