package events

import "fmt"

// Event names.
const (
	SessionStarted   = "session.started"
	SessionDecision  = "session.decision"
	SessionCompleted = "session.completed"
	SessionReset     = "session.reset"
	SessionRestored  = "session.restored"
	SessionDeleted   = "session.deleted"
	SessionRejected  = "session.rejected"

	SystemStartup  = "system.startup"
	SystemShutdown = "system.shutdown"
	SystemError    = "system.error"

	MQTTConnected    = "mqtt.connected"
	MQTTDisconnected = "mqtt.disconnected"
	MQTTCommand      = "mqtt.command"
)

var allowedEvents = map[string]struct{}{
	// session
	SessionStarted:   {},
	SessionDecision:  {},
	SessionCompleted: {},
	SessionReset:     {},
	SessionRestored:  {},
	SessionDeleted:   {},
	SessionRejected:  {},

	// system
	SystemStartup:  {},
	SystemShutdown: {},
	SystemError:    {},

	// mqtt
	MQTTConnected:    {},
	MQTTDisconnected: {},
	MQTTCommand:      {},
}

// Validate returns an error if name is not a registered event.
func Validate(name string) error {
	if _, ok := allowedEvents[name]; !ok {
		return fmt.Errorf("unknown event: %s", name)
	}
	return nil
}
