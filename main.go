package main

import (
	"errors"
	"fmt"

	"github.com/penny-vault/pv-folio/cmd"
	"github.com/spf13/viper"
)

func configureViper() {
	// read config file
	viper.SetConfigName("pvfolio")
	viper.SetConfigType("toml")
	viper.AddConfigPath("/etc/pvfolio/")
	viper.AddConfigPath("$HOME/.config/pvfolio")
	viper.AddConfigPath(".")

	err := viper.ReadInConfig() // Find and read the config file
	if err != nil {             // the config file is optional
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}
}

func main() {
	configureViper()
	cmd.Execute()
}
