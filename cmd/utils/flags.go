package utils

import (
	"os"
	"path/filepath"
)

var (
	LuminaHome   string
	LuminaConfig string
)

func GetLuminaHome() string {
	if LuminaHome != "" {
		return LuminaHome
	}

	home := os.Getenv("LUMINAHOME")

	if home != "" {
		return home
	}

	return os.ExpandEnv(filepath.Join("$HOME", ".lumina"))
}

func GetLuminaConfigPath() string {
	if LuminaConfig != "" {
		return LuminaConfig
	}

	return GetLuminaHome() + "/config/config.toml"
}
