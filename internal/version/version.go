// Package version holds the DecisionSim release version.
package version

// Version is overridden at build time with:
//
//	go build -ldflags "-X github.com/AaronLay10/DecisionSim/internal/version.Version=x.y.z"
var Version = "0.3.0"
