package ports

type Topic = string
type Event = []string
type EventBus interface {
	Shutdown()
	Pub(Topic, Event)
	Sub(Topic) chan Event
	Unsub(chan Event)
}

const (
	// Event{artifactID, state, filename, format, detail}
	TopicArtifactUpdated Topic = "artifact-updated"
	// Event{dir...} to be watched
	TopicInboxUpdated Topic = "inbox-updated"
	// Event{file} published by watcher with id "inbox"
	TopicInboxFileModified Topic = "inbox-file-modified"
	TopicInboxFileRemoved  Topic = "inbox-file-removed"
)
