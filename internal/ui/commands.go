package ui

import (
	"fmt"
	"strings"

	"github.com/bz888/codeagent/internal/models"
)

type commandKind int

const (
	notACommand commandKind = iota
	cmdHelp
	cmdBye
	cmdDebug
	cmdReset
	cmdSessions
	cmdToggle
	cmdUnknown
)

type command struct {
	kind    commandKind
	feature models.Feature
	enable  bool
}

var helpLines = []string{
	"- /help: Display this help message",
	"- /bye: Exit the application (/quit and /exit work too)",
	"- /debug: Toggle the debug console",
	"- /reset: Clear the conversation of the current session",
	"- /sessions: Pick the session to talk in",
	"- /chat on|off: Load or unload the chat model",
	"- /auto on|off: Load or unload the autocomplete model",
	"- Tab in the code panel: Complete the code at its end",
}

// parseCommand recognises slash commands typed into the question box.
// Anything that does not start with a slash is a question.
func parseCommand(input string) (command, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return command{kind: notACommand}, nil
	}

	switch fields[0] {
	case "/help":
		return command{kind: cmdHelp}, nil
	case "/bye", "/quit", "/exit":
		return command{kind: cmdBye}, nil
	case "/debug":
		return command{kind: cmdDebug}, nil
	case "/reset":
		return command{kind: cmdReset}, nil
	case "/sessions":
		return command{kind: cmdSessions}, nil
	case "/chat", "/auto":
		feature := models.Chat
		if fields[0] == "/auto" {
			feature = models.Autocomplete
		}
		if len(fields) != 2 {
			return command{kind: cmdUnknown}, fmt.Errorf("usage: %s on|off", fields[0])
		}
		switch fields[1] {
		case "on":
			return command{kind: cmdToggle, feature: feature, enable: true}, nil
		case "off":
			return command{kind: cmdToggle, feature: feature, enable: false}, nil
		}
		return command{kind: cmdUnknown}, fmt.Errorf("usage: %s on|off", fields[0])
	}
	return command{kind: cmdUnknown}, fmt.Errorf("unknown command %s, try /help", fields[0])
}
