package auth

import (
	"fmt"
	"os"
	"strings"
)

// processIdentity reads the start time (clock ticks since boot) of pid from
// /proc/<pid>/stat.
func processIdentity(pid int) (start string, alive bool) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return "", false
	}

	// comm may hold spaces and parens; fields resume after the last ')'
	stat := string(data)
	end := strings.LastIndexByte(stat, ')')
	if end < 0 {
		return "", true
	}
	fields := strings.Fields(stat[end+1:])
	// fields[0] is field 3 (state); starttime is field 22
	if len(fields) < 20 {
		return "", true
	}
	return fields[19], true
}
