package main

import "github.com/meysamhadeli/driftcheck/cmd"

func main() {
	cmd.Execute()
}
