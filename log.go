package actorkit

import "github.com/btcsuite/btclog"

// log is the package-wide subsystem logger. It defaults to a no-op logger so
// importing actorkit never produces unwanted output; a host application
// wires in a real logger via UseLogger.
var log btclog.Logger = btclog.Disabled

// UseLogger configures actorkit's logger. Host applications typically call
// this once at startup with a subsystem logger scoped to an "ACTR"-style
// prefix.
func UseLogger(logger btclog.Logger) {
	log = logger
}
