package main

import (
	"fmt"

	"github.com/harunnryd/jarvis/cmd/jarvis/runtime"

	"github.com/spf13/cobra"
)

func executeWithRuntime(cmd *cobra.Command, fn func(*runtime.RuntimeComponents) error) error {
	if cfg == nil {
		return fmt.Errorf("config not loaded")
	}

	sig := NewSignalHandler(cmd.Context())
	sig.Start()
	defer sig.Stop()

	components, err := runtime.NewRuntimeBuilder().
		WithContext(sig.Context()).
		WithConfig(cfg).
		Build()
	if err != nil {
		return fmt.Errorf("failed to initialize runtime: %w", err)
	}
	defer components.Stop()

	return fn(components)
}
