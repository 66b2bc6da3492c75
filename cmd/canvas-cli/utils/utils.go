package utils

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
)

func NewTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func Fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

// ParseId parses a positional id argument, exiting on failure.
func ParseId(name, arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		Fatal(fmt.Sprintf("%s must be a numeric id", name), err)
	}
	return id
}

// Deref formats an optional value, nil is blank.
func Deref[T any](value *T) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(*value)
}
