package treetrim

// Version is the release of this module. It is overridden at build time with
// -ldflags "-X github.com/aretw0/treetrim.Version=vX.Y.Z".
var Version = "0.1.0-dev"
