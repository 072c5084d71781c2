// Command autocode generates factories, proxies and trait mixins for Go
// packages from type names.
package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/sghaida/autocode/cmd/autocode/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
		os.Exit(1)
	}
}
