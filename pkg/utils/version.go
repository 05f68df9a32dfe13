package utils

// Version is the packrat build version, overridden at link time via
// -ldflags "-X github.com/packratco/packrat/pkg/utils.Version=...".
var Version = "0.1.0-dev"
