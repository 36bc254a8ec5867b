// Package config loads xferctl settings from a TOML file, an optional .env
// file and PACKETXFER_* environment variables, in increasing precedence, and
// configures logrus output from the [log] section.
//
// Example:
//
//	cfg, err := config.Load("xferctl.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	closer, err := config.ConfigureLogging(cfg.Log)
//	defer closer.Close()
//	opts, err := cfg.Options()
//	manager := file.NewManager(opts)
package config
