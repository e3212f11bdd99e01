// Package config provides configuration management for the dataset streamer.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file (via godotenv).
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings,
// divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Storage: S3/MinIO credentials and bucket settings
//   - Log: Logging level and format
//   - Dataset: Fetch pipeline tuning (window size, retry budget, backoff)
//
// Defaults come from `default` struct tags, resolved by reflection so that
// every key is registered with Viper before AutomaticEnv kicks in.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Storage.Endpoint)
package config
