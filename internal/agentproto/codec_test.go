package agentproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		cmd     Command
		wantErr error
	}{
		{"check_health ok", Command{Type: CommandCheckHealth}, nil},
		{"shutdown ok", Command{Type: CommandShutdown}, nil},
		{"get_status ok", Command{Type: CommandGetStatus}, nil},
		{"update_context needs payload", Command{Type: CommandUpdateContext}, ErrMissingPayload},
		{"update_context with payload ok", Command{Type: CommandUpdateContext, Payload: map[string]any{"a": 1}}, nil},
		{"configure needs payload", Command{Type: CommandConfigure}, ErrMissingPayload},
		{"unknown type", Command{Type: "bogus"}, ErrUnknownCommand},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.cmd.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}
