// Command hydrosource computes hydrodynamic source terms from QCD strings
// and partons.
package main

import "github.com/papapumpkin/hydrosource/cmd"

func main() {
	cmd.Execute()
}
