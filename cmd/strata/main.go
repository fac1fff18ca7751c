// Command strata manages records of a schema-defined SQLite database.
package main

import "github.com/mesh-intelligence/strata/internal/cli"

func main() {
	cli.Execute()
}
