//go:build !windows
// +build !windows

package config

import "errors"

func loadPolicy(config *Configuration) error {
	return errors.New("policy settings are only read from the Windows registry")
}
