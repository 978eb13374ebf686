package models

import "strings"

// CommandType enumerates the chat commands users can send.
type CommandType string

const (
	CommandMeal     CommandType = "meal"
	CommandActivity CommandType = "activity"
	CommandToday    CommandType = "today"
	CommandWeek     CommandType = "week"
	CommandBMI      CommandType = "bmi"
	CommandHelp     CommandType = "help"
	CommandUnknown  CommandType = "unknown"
)

var commandAliases = map[string]CommandType{
	"meal":     CommandMeal,
	"eat":      CommandMeal,
	"activity": CommandActivity,
	"workout":  CommandActivity,
	"today":    CommandToday,
	"week":     CommandWeek,
	"bmi":      CommandBMI,
	"help":     CommandHelp,
}

// Command represents a parsed instruction extracted from a chat message.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from free-form text. The leading slash is optional.
func ParseCommand(message string) Command {
	normalized := strings.TrimSpace(strings.ToLower(message))
	cmd := Command{Type: CommandUnknown, Raw: message}

	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		return cmd
	}

	if t, ok := commandAliases[strings.TrimPrefix(tokens[0], "/")]; ok {
		cmd.Type = t
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}

// IsSlashCommand reports whether the text explicitly starts with a command prefix.
func IsSlashCommand(message string) bool {
	return strings.HasPrefix(strings.TrimSpace(message), "/")
}
