package main

import (
	"github.com/nvjustdev/DRL-CollaborateCompete/examples"
)

func main() {
	examples.DDPGSyntheticControl()
}
