package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"multicam/internal/acquisition"
	"multicam/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err with the camera it concerns and a next step.
// Interrupts exit quietly.
func reportError(w io.Writer, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	fmt.Fprintln(w, err)
	if devErr, ok := acquisition.AsDeviceError(err); ok {
		fmt.Fprintf(w, "camera: %s\n", devErr.Camera())
	}
	fmt.Fprintf(w, "hint: %s\n", services.Hint(err))
}
