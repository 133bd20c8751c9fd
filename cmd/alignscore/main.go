// Command alignscore serves and runs the answer scoring pipeline.
//
//	alignscore serve
//	alignscore score --question 问题 --answer 回答
//	alignscore keygen
//	alignscore decode --token <token>
package main

import (
	"os"

	"github.com/raysh454/alignscore/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
