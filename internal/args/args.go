package args

import (
	"flag"
)

var configFilePath string
var production bool

func Init() {
	flag.StringVar(&configFilePath, "config", "", "path to a yaml config file")
	flag.BoolVar(&production, "production", false, "run with production defaults and logging")
	flag.Parse()
}

func ConfigFilePath() string {
	return configFilePath
}

func IsProduction() bool {
	return production
}

// Command returns the positional arguments left after the global flags.
func Command() []string {
	return flag.Args()
}
