package dto

// PublishState is the platform-reported state of an asynchronous publish.
type PublishState string

const (
	PublishStateProcessing PublishState = "PROCESSING"
	PublishStateComplete   PublishState = "PUBLISH_COMPLETE"
	PublishStateFailed     PublishState = "FAILED"
)

// Terminal reports whether polling can stop at this state.
func (s PublishState) Terminal() bool {
	return s == PublishStateComplete || s == PublishStateFailed
}

// PublishStatus is one poll result for an in-flight platform publish.
type PublishStatus struct {
	State          PublishState `json:"state"`
	PlatformPostID string       `json:"platform_post_id,omitempty"`
	FailReason     string       `json:"fail_reason,omitempty"`
}
