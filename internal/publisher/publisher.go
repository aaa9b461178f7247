package publisher

// Client announces finished videos and operational problems to wherever the
// operator watches. Publishing is best effort, callers treat failures as
// non-fatal.
type Client interface {
	PublishVideo(path, caption string) error
	NotifyError(message string)
}
