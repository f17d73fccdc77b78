package main

import (
	"os"

	"github.com/NickCao/ebpf-verifier/cmd/ebpf-verifier/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
