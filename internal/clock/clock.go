// Package clock centralises time access so tests can pin it.
package clock

import "time"

// NowFunc supplies the current time; tests swap it for a fixed sequence.
var NowFunc = time.Now

// Now reads the configured time source.
func Now() time.Time { return NowFunc() }
