package agentproto

import "errors"

// ErrUnknownCommand is returned by Validate for a command type outside the
// declared tagged union.
var ErrUnknownCommand = errors.New("agentproto: unknown command type")

// ErrMissingPayload is returned by Validate when a command that requires a
// keyed payload record (update_context, configure) has none.
var ErrMissingPayload = errors.New("agentproto: missing command payload")
