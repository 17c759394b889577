// Package all registers all shell commands.
package all

import (
	// shell commands
	_ "github.com/robotalks/wheelphone.go/pkg/cli/cmds/nav2d"
	_ "github.com/robotalks/wheelphone.go/pkg/cli/cmds/wheelphone"
)
