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
package client

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

const prompt = "\033[32mkvlog>\033[0m "

// Repl runs an interactive line editor against c until the user exits
// with Ctrl-D or Ctrl-C on an empty line. Each line is "get key",
// "set key value", or "rm key".
func Repl(c *Client) error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       ".kvlog-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return err
	}
	defer l.Close()
	l.CaptureExitSignal()

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := runLine(c, line); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func runLine(c *Client, line string) error {
	fields := strings.SplitN(line, " ", 3)
	switch strings.ToLower(fields[0]) {
	case "get":
		if len(fields) != 2 {
			return fmt.Errorf("usage: get <key>")
		}
		value, found, err := c.Get(fields[1])
		if err != nil {
			return err
		}
		if !found {
			fmt.Println("Key not found")
			return nil
		}
		fmt.Println(value)
	case "set":
		if len(fields) != 3 {
			return fmt.Errorf("usage: set <key> <value>")
		}
		return c.Set(fields[1], fields[2])
	case "rm":
		if len(fields) != 2 {
			return fmt.Errorf("usage: rm <key>")
		}
		return c.Remove(fields[1])
	default:
		return fmt.Errorf("unknown command %q (expected get/set/rm)", fields[0])
	}
	return nil
}
