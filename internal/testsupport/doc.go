// Package testsupport builds isolated configurations and stores for tests.
package testsupport
