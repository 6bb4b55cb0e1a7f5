// Package config manages user-level settings stored at ~/.promptreg/config.yaml:
// the configured catalogs and their credentials, the install root, the data
// directory and refresh scheduling. Values are read through Viper so every
// scalar key can be overridden by a PROMPTREG_* environment variable.
package config
