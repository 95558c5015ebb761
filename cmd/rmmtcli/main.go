// Command rmmtcli builds and queries parallel rmMt succinct-tree indexes.
package main

import "github.com/succinctlab/rmmt/cmd/rmmtcli/cmd"

func main() {
	cmd.Execute()
}
