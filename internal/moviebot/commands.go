package moviebot

import (
	"strings"
)

type Command int

const (
	// CommandNone marks free text, which is routed to search.
	CommandNone Command = iota
	CommandHelp
	CommandStart
	CommandSettings
	CommandSetIMDbToken
	CommandSetNotionToken
	CommandCreateNotionDB
)

var commandNames = map[string]Command{
	"help":             CommandHelp,
	"start":            CommandStart,
	"settings":         CommandSettings,
	"set_imdb_token":   CommandSetIMDbToken,
	"set_notion_token": CommandSetNotionToken,
	"create_notion_db": CommandCreateNotionDB,
}

func (c Command) String() string {
	for name, cmd := range commandNames {
		if cmd == c {
			return name
		}
	}
	return "search"
}

// ParseCommand splits "/name[@bot] args". Commands addressed to another bot
// and unknown commands come back as CommandNone so they fall through to
// search, like any other text.
func ParseCommand(text, botUsername string) (Command, string) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return CommandNone, ""
	}
	head, args, _ := strings.Cut(trimmed[1:], " ")
	if idx := strings.IndexAny(head, "\n\t"); idx >= 0 {
		args = head[idx+1:] + " " + args
		head = head[:idx]
	}
	name, target, addressed := strings.Cut(head, "@")
	if addressed && botUsername != "" && !strings.EqualFold(target, botUsername) {
		return CommandNone, ""
	}
	cmd, ok := commandNames[strings.ToLower(name)]
	if !ok {
		return CommandNone, ""
	}
	return cmd, strings.TrimSpace(args)
}
