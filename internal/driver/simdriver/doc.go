// Package simdriver is an in-process camera driver that produces
// deterministic gradient frames.
//
// It backs `driver.kind = "sim"` for dry runs and every acquisition test.
// Each simulated device can inject failures at open, configure, stream,
// pull and convert time, and records its call history so tests can audit
// streaming state and the one-outstanding-buffer rule.
package simdriver
