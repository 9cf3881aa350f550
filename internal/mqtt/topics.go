package mqtt

import "strings"

// Command actions accepted on session command topics.
const (
	ActionAdvance = "advance"
	ActionReset   = "reset"
)

// Topics builds and parses topic names under a common prefix.
//
//	<prefix>/sessions/<id>/events    session events
//	<prefix>/sessions/<id>/state     session view after a command
//	<prefix>/sessions/<id>/errors    rejected commands
//	<prefix>/sessions/<id>/<action>  commands
//	<prefix>/system/events           events without a session
type Topics struct {
	prefix string
}

func NewTopics(prefix string) Topics {
	return Topics{prefix: strings.Trim(prefix, "/")}
}

func (t Topics) join(parts ...string) string {
	if t.prefix != "" {
		parts = append([]string{t.prefix}, parts...)
	}
	return strings.Join(parts, "/")
}

func (t Topics) SessionEvents(sessionID string) string {
	return t.join("sessions", sessionID, "events")
}

func (t Topics) SessionState(sessionID string) string {
	return t.join("sessions", sessionID, "state")
}

func (t Topics) SessionErrors(sessionID string) string {
	return t.join("sessions", sessionID, "errors")
}

func (t Topics) SystemEvents() string {
	return t.join("system", "events")
}

// CommandFilter returns the wildcard subscription for an action.
func (t Topics) CommandFilter(action string) string {
	return t.join("sessions", "+", action)
}

// ParseCommand extracts the session id and action from a command topic.
func (t Topics) ParseCommand(topic string) (sessionID, action string, ok bool) {
	rest := topic
	if t.prefix != "" {
		var found bool
		rest, found = strings.CutPrefix(topic, t.prefix+"/")
		if !found {
			return "", "", false
		}
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] != "sessions" || parts[1] == "" {
		return "", "", false
	}
	switch parts[2] {
	case ActionAdvance, ActionReset:
		return parts[1], parts[2], true
	}
	return "", "", false
}
