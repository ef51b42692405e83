package main

import (
	"github.com/nhle/collab-todo/internal/credential"
	"github.com/nhle/collab-todo/internal/model"
)

// loadConfig reads the config file, resolving secrets from the keyring when
// one can be opened.
func loadConfig(path string) (*model.AppConfig, error) {
	var lookup model.SecretLookup
	if vault, err := credential.Open(); err == nil {
		lookup = vault.Lookup
	}
	return model.LoadConfig(path, lookup)
}
