// Command elogy runs the electronic logbook service core: the HTTP API
// server over logbooks, entries, revisions, locks, search, and attachments
// described in this repository's specification.
package main

import (
	"log"

	"elogy.dev/core/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
