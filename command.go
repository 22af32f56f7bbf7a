package remotefs

import (
	"strings"
)

const (
	siteExecPrefix = "SITE EXEC "
	sitePrefix     = "SITE "
)

// CommandResult is the outcome of Execute.
type CommandResult struct {
	Kind CommandKind

	// OK reports whether the server accepted the command.
	OK bool

	// Lines is the verbatim reply of a raw command.
	Lines []string
}

// Execute sends a server command. "SITE EXEC <cmd>" runs cmd on the server
// host, other "SITE <cmd>" commands go through SITE, and anything else, or
// any command when raw is set, is sent verbatim.
//
// The working folder is unknown afterwards.
func (d *Driver) Execute(command string, raw bool) (CommandResult, error) {
	if err := d.ensureReady(); err != nil {
		return CommandResult{}, err
	}
	d.cwd = ""

	res := CommandResult{Kind: dispatchCommand(command, raw)}
	var err error
	switch res.Kind {
	case CommandExec:
		d.prepare(OpExec).command = command
		res.OK, err = d.conn.Exec(strings.TrimSpace(command[len(siteExecPrefix):]))
	case CommandSite:
		d.prepare(OpSite).command = command
		res.OK, err = d.conn.Site(strings.TrimSpace(command[len(sitePrefix):]))
	default:
		d.prepare(OpRaw).command = command
		res.Lines, err = d.conn.Raw(command)
		res.OK = err == nil
	}
	if err != nil {
		return CommandResult{Kind: res.Kind}, d.fail(err)
	}
	return res, nil
}

func dispatchCommand(command string, raw bool) CommandKind {
	switch {
	case raw:
		return CommandRaw
	case hasPrefixFold(command, siteExecPrefix):
		return CommandExec
	case hasPrefixFold(command, sitePrefix):
		return CommandSite
	default:
		return CommandRaw
	}
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
