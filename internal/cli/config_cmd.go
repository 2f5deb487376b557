// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Config get/set/list command handlers.
package cli

import (
	"fmt"

	"github.com/jeranaias/kgraph-tui/internal/config"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "list", "show":
		return configList()
	case "get":
		return configGet(args.ConfigKey)
	case "set":
		return configSet(args.ConfigKey, args.ConfigVal)
	case "path":
		fmt.Println(configPathForDisplay())
		return nil
	default:
		return fmt.Errorf("usage: kgraph config [list|get KEY|set KEY VALUE|path]")
	}
}

func configList() error {
	cfg := config.Global()
	for _, key := range config.GetAllKeys() {
		val, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Printf("%-28s = %v\n", key, val)
	}
	return nil
}

func configGet(key string) error {
	if key == "" {
		return fmt.Errorf("usage: kgraph config get KEY")
	}
	val, err := config.Global().Get(key)
	if err != nil {
		return err
	}
	fmt.Printf("%v\n", val)
	return nil
}

// configSet validates the new value, persists it, and reloads the
// global config so the running process sees it too.
func configSet(key, value string) error {
	if key == "" || value == "" {
		return fmt.Errorf("usage: kgraph config set KEY VALUE")
	}

	cfg := config.Global()
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return err
	}
	config.SetGlobal(cfg)

	fmt.Printf("%s = %s\n", key, value)
	return nil
}
