/*
Copyright (C) 2026  kvlog Contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/launix-de/kvlog/client"
)

func main() {
	addr := pflag.StringP("addr", "a", "127.0.0.1:4000", "server address")
	pflag.Parse()
	args := pflag.Args()

	c, err := client.Dial(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer c.Close()

	if len(args) == 0 {
		if err := client.Repl(c); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	os.Exit(runOnce(c, args))
}

// runOnce implements the CLI's exit-code contract: a get miss prints
// "Key not found" to stdout and exits 0 (the query succeeded, it just
// found nothing); a remove of a missing key prints the same message to
// stderr and exits 1 (the removal itself failed); set/remove success is
// silent.
func runOnce(c *client.Client, args []string) int {
	switch args[0] {
	case "get":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: kvs-client get <key>")
			return 2
		}
		value, found, err := c.Get(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if !found {
			fmt.Println("Key not found")
			return 0
		}
		fmt.Println(value)
		return 0
	case "set":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "usage: kvs-client set <key> <value>")
			return 2
		}
		if err := c.Set(args[1], args[2]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	case "rm":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: kvs-client rm <key>")
			return 2
		}
		if err := c.Remove(args[1]); err != nil {
			if errors.Is(err, client.ErrKeyNotFound) {
				fmt.Fprintln(os.Stderr, "Key not found")
			} else {
				fmt.Fprintln(os.Stderr, err)
			}
			return 1
		}
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (expected get/set/rm)\n", args[0])
		return 2
	}
}
