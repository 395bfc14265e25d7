package config

import "time"

// TestConfig returns a config suitable for testing: short timeouts, private
// hosts allowed so httptest servers validate, no journal.
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.Feed.HTTPTimeout = 5 * time.Second
	cfg.Feed.UserAgent = "newsdigest-test/1.0"
	cfg.Feed.AllowPrivateHosts = true
	cfg.Gateway.Timeout = 2 * time.Second
	cfg.Gateway.AllowPrivateHosts = true
	cfg.Gateway.SendKey = "SCTtest"
	cfg.Log.Level = "off"
	return cfg
}
