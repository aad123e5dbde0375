// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"os"
)

// version はビルド時に -ldflags で上書きします。
var version = "dev"

func main() {
	cmd := NewRootCmd()
	cmd.Version = version

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
