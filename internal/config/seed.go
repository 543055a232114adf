// ABOUTME: Bootstrap user fixtures loaded from a TOML seed file
// ABOUTME: Used by the seed command to create initial accounts

package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// SeedUser is one bootstrap account from the fixtures file.
type SeedUser struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// SeedFile is the parsed fixtures file.
type SeedFile struct {
	Users []SeedUser `toml:"users"`
}

// LoadSeedFile parses a TOML fixtures file.
//
// Format:
//
//	[[users]]
//	username = "admin"
//	password = "1234"
func LoadSeedFile(path string) (*SeedFile, error) {
	var seed SeedFile
	if _, err := toml.DecodeFile(path, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	for i, u := range seed.Users {
		if u.Username == "" || u.Password == "" {
			return nil, fmt.Errorf("seed user %d: username and password are required", i)
		}
	}
	return &seed, nil
}
