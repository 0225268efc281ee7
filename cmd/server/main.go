package main

import (
	"go.uber.org/zap"

	"github.com/vera-byte/vgo-ngo-admin/cmd"
)

// main vgo-ngo-admin 主入口
func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		logger, _ := zap.NewDevelopment(zap.WithCaller(false))
		logger.Fatal("Failed to execute command", zap.Error(err))
	}
}
