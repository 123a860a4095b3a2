package config

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/mayanlabs/swap-watcher/attester"
	"github.com/mayanlabs/swap-watcher/db"
	"github.com/mayanlabs/swap-watcher/etherman"
	"github.com/mayanlabs/swap-watcher/follower"
	"github.com/mayanlabs/swap-watcher/log"
	"github.com/mayanlabs/swap-watcher/metrics"
	"github.com/mayanlabs/swap-watcher/scanner"
	"github.com/mayanlabs/swap-watcher/solman"
	"github.com/mayanlabs/swap-watcher/token"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config struct
type Config struct {
	Log        log.Config
	Database   db.Config
	Etherman   etherman.Config
	Solana     solman.Config
	Attester   attester.Config
	TokenCache token.RedisConfig
	Scanner    scanner.Config
	Follower   follower.Config
	Metrics    metrics.Config
}

// Load loads the configuration
func Load(configFilePath string) (*Config, error) {
	var cfg Config
	viper.SetConfigType("toml")

	err := viper.ReadConfig(bytes.NewBuffer([]byte(DefaultValues)))
	if err != nil {
		return nil, err
	}
	err = viper.Unmarshal(&cfg, viper.DecodeHook(mapstructure.TextUnmarshallerHookFunc()))
	if err != nil {
		return nil, err
	}
	if configFilePath != "" {
		dirName, fileName := filepath.Split(configFilePath)

		fileExtension := strings.TrimPrefix(filepath.Ext(fileName), ".")
		fileNameWithoutExtension := strings.TrimSuffix(fileName, "."+fileExtension)

		viper.AddConfigPath(dirName)
		viper.SetConfigName(fileNameWithoutExtension)
		viper.SetConfigType(fileExtension)
	}
	viper.AutomaticEnv()
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.SetEnvPrefix("SWAP_WATCHER")
	err = viper.ReadInConfig()
	if err != nil {
		_, ok := err.(viper.ConfigFileNotFoundError)
		if ok {
			log.Infof("config file not found")
		} else {
			log.Infof("error reading config file: ", err)
			return nil, err
		}
	}

	err = viper.Unmarshal(&cfg, viper.DecodeHook(mapstructure.TextUnmarshallerHookFunc()))
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
