package commands

import "strings"

const DefaultPrefix = "!"

// Invocation is a parsed text command.
type Invocation struct {
	AuthorID  string
	GuildID   string
	ChannelID string
	Name      string
	Args      []string
}

// Command describes one admin command.
type Command struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
	// Public commands skip the authorization gate.
	Public bool
}

// GetAllCommands returns every command the handler routes.
func GetAllCommands() []Command {
	return []Command{
		{Name: "allow", Usage: "allow <userId>", Description: "Add a user to the allowed list"},
		{Name: "remove", Usage: "remove <userId>", Description: "Remove a user from the allowed list"},
		{Name: "listallowed", Usage: "listallowed", Description: "List all allowed users"},
		{Name: "securitystatus", Aliases: []string{"security_status"}, Usage: "securitystatus", Description: "View current security status"},
		{Name: "stats", Usage: "stats", Description: "Host and runtime statistics"},
		{Name: "ping", Usage: "ping", Description: "Gateway latency", Public: true},
	}
}

// Lookup resolves a name or alias to its command.
func Lookup(name string) (Command, bool) {
	name = strings.ToLower(name)
	for _, c := range GetAllCommands() {
		if c.Name == name {
			return c, true
		}
		for _, a := range c.Aliases {
			if a == name {
				return c, true
			}
		}
	}
	return Command{}, false
}

// Parse splits a prefixed message into a command name and arguments.
// It reports false for messages that are not commands.
func Parse(prefix, content string) (name string, args []string, ok bool) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}

	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}
