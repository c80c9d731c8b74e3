package session

// Event is a payload-free notification tag emitted by the controller
// for its UI collaborators. Consumers only need the tag; all state
// queries go through Status.
type Event string

const (
	EventRecordingStarted   Event = "recording-started"
	EventRecordingStopped   Event = "recording-stopped"
	EventPlaybackStarted    Event = "playback-started"
	EventPlaybackStopped    Event = "playback-stopped"
	EventPermissionRequired Event = "permission-required"
)
