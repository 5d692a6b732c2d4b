package ui

import (
	"testing"

	"github.com/bz888/codeagent/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input   string
		want    command
		wantErr bool
	}{
		{input: "why does this panic?", want: command{kind: notACommand}},
		{input: "  /help ", want: command{kind: cmdHelp}},
		{input: "/bye", want: command{kind: cmdBye}},
		{input: "/exit", want: command{kind: cmdBye}},
		{input: "/debug", want: command{kind: cmdDebug}},
		{input: "/reset", want: command{kind: cmdReset}},
		{input: "/sessions", want: command{kind: cmdSessions}},
		{input: "/chat off", want: command{kind: cmdToggle, feature: models.Chat, enable: false}},
		{input: "/auto on", want: command{kind: cmdToggle, feature: models.Autocomplete, enable: true}},
		{input: "/auto", want: command{kind: cmdUnknown}, wantErr: true},
		{input: "/chat maybe", want: command{kind: cmdUnknown}, wantErr: true},
		{input: "/voice", want: command{kind: cmdUnknown}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseCommand(tt.input)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
