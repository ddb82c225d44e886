package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prasenjit/go-requester/internal/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "go-requester",
		Short: "Go-Requester - compose and record requests from Swagger documents",
		Long: `Go-Requester loads Swagger 2 and OpenAPI 3 documents and turns every
operation into an editable request: query string, generated JSON body,
parameters and headers. Submitted requests are kept in a searchable history
that can be exported as HAR.`,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(inspectCmd)
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}

		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// GOREQUESTER_STORAGE_TYPE overrides storage.type
	viper.SetEnvPrefix("GOREQUESTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so environment overrides apply during Unmarshal
func setDefaults() {
	def := config.Default()

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	viper.SetDefault("server.port", def.Server.Port)
	viper.SetDefault("server.host", def.Server.Host)

	viper.SetDefault("storage.type", def.Storage.Type)
	viper.SetDefault("storage.path", filepath.Join(cwd, "data"))
	viper.SetDefault("storage.mongo.uri", def.Storage.Mongo.URI)
	viper.SetDefault("storage.mongo.database", def.Storage.Mongo.Database)
	viper.SetDefault("storage.mongo.timeout", def.Storage.Mongo.Timeout)

	viper.SetDefault("history.maxEntries", def.History.MaxEntries)
	viper.SetDefault("history.dedupe", def.History.Dedupe)

	viper.SetDefault("logging.level", def.Logging.Level)
	viper.SetDefault("logging.format", def.Logging.Format)
}
