package courselet

// Version is overridden at build time with -ldflags "-X github.com/aretw0/courselet.Version=...".
var Version = "0.1.0-dev"
