package main

import "github.com/polkaswap/bridge-sidecar/cmd"

func main() {
	cmd.Execute()
}
