package config

import (
	"io"

	"github.com/pborman/getopt/v2"
)

// Flags are the command-line options.
type Flags struct {
	ConfigFile string
	LogLevel   string
	Help       bool

	set *getopt.Set
}

// ParseFlags parses args, where args[0] is the program name.
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{set: getopt.New()}
	f.set.FlagLong(&f.ConfigFile, "config", 'c', "config file pathname")
	f.set.FlagLong(&f.LogLevel, "log-level", 'l', "log level: debug, info, warn, error")
	f.set.FlagLong(&f.Help, "help", 'h', "display help")

	if err := f.set.Getopt(args, nil); err != nil {
		return f, err
	}
	return f, nil
}

// PrintUsage writes the option summary to w.
func (f *Flags) PrintUsage(w io.Writer) {
	f.set.PrintUsage(w)
}
