package main

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// cliArgs turns positional arguments into the "--section.key=value" form read
// by the config loader. Keys must be registered; the legacy "<ip> <port>"
// form becomes server.host and server.port.
func cliArgs(args []string, registered map[string]bool) ([]string, error) {
	if len(args) == 2 && !strings.Contains(args[0], "=") && !strings.Contains(args[1], "=") {
		if net.ParseIP(args[0]) == nil {
			return nil, fmt.Errorf("invalid ip address '%s'", args[0])
		}
		if _, err := strconv.ParseUint(args[1], 10, 16); err != nil {
			return nil, fmt.Errorf("invalid port '%s'", args[1])
		}
		return []string{"--server.host=" + args[0], "--server.port=" + args[1]}, nil
	}

	out := make([]string, 0, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if !ok || !strings.Contains(key, ".") {
			return nil, fmt.Errorf("invalid argument '%s', expected section.key=value", arg)
		}
		if !registered[key] {
			return nil, fmt.Errorf("unknown config key '%s'", key)
		}
		out = append(out, "--"+key+"="+value)
	}
	return out, nil
}
