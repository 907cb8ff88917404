// Command gcm-bot answers maimai, CHUNITHM and O.N.G.E.K.I. chart questions on Discord.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
