package events

import "github.com/maxaizer/jobalert/internal/entities"

var JobBroadcastTopic = "JobBroadcastEvent"

// JobBroadcast is published once for every newly stored job that is recent
// enough to be announced on the public channel.
type JobBroadcast struct {
	Job entities.Job
}
