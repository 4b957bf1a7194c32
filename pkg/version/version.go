package version

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/maxvaer/intervention/pkg/version.Version=1.2.0"
var Version = "dev"
