// Package main is the entry point for the repoaudit CLI.
package main

import (
	"github.com/huangsam/repoaudit/cmd"
	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/internal/iocache"
)

func main() {
	defer iocache.CloseStores()
	if err := cmd.Execute(); err != nil {
		iocache.CloseStores()
		contract.LogFatal("Command failed", err)
	}
}
