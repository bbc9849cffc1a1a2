//go:build windows
// +build windows

package config

import (
	"fmt"
	"log"
	"strconv"

	"golang.org/x/sys/windows/registry"
)

// loadPolicy overlays values found under HKLM\PolicyRegistryPath.
func loadPolicy(config *Configuration) error {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, PolicyRegistryPath, registry.READ)
	if err != nil {
		return fmt.Errorf("failed to open policy registry key %s: %w", PolicyRegistryPath, err)
	}
	defer key.Close()

	loadStringFromRegistry(key, "CatalogPath", &config.CatalogPath)
	loadStringFromRegistry(key, "SelectionPath", &config.SelectionPath)
	loadStringFromRegistry(key, "LogDir", &config.LogDir)
	loadStringFromRegistry(key, "LogLevel", &config.LogLevel)

	loadBoolFromRegistry(key, "Debug", &config.Debug)
	loadBoolFromRegistry(key, "Verbose", &config.Verbose)

	return nil
}

// loadStringFromRegistry loads a string value from registry if it exists.
func loadStringFromRegistry(key registry.Key, valueName string, target *string) {
	if val, _, err := key.GetStringValue(valueName); err == nil && val != "" {
		*target = val
		log.Printf("Policy: Loaded %s = %s", valueName, val)
	}
}

// loadBoolFromRegistry accepts "true"/"false", "1"/"0" or a DWORD.
func loadBoolFromRegistry(key registry.Key, valueName string, target *bool) {
	if val, _, err := key.GetStringValue(valueName); err == nil {
		if parsed, parseErr := strconv.ParseBool(val); parseErr == nil {
			*target = parsed
			log.Printf("Policy: Loaded %s = %t", valueName, parsed)
			return
		}
	}

	if val, _, err := key.GetIntegerValue(valueName); err == nil {
		*target = val != 0
		log.Printf("Policy: Loaded %s = %t", valueName, val != 0)
	}
}
