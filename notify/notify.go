// Package notify raises the operating-system alert when an alarm fires. It
// is best effort: on a platform without a notification daemon only the beep
// remains, and a platform without audio stays silent.
package notify

import (
	"github.com/gen2brain/beeep"

	"bsid.es/despierta"
)

// title is shown on every notification.
const title = "Despierta"

// Fire alerts the user about a fired alarm.
func Fire(firing despierta.Firing) {
	msg := firing.Alarm.Label
	if msg == "" {
		msg = "Alarm"
	}
	_ = beeep.Alert(title, msg+" ("+firing.Alarm.Time.String()+")", "")
	_ = beeep.Beep(beeep.DefaultFreq, 2000)
}
