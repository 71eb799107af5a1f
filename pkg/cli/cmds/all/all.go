// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/neurobridge/pkg/cli/cmds/motor"
)
