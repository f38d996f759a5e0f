// Command emvex is the command line interface of the embedding and vector
// retrieval engine.
package main

import "github.com/kailas-cloud/emvex/internal/cli"

func main() {
	cli.Execute()
}
