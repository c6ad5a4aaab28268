package checkout

// NoticeLevel classifies a user-visible notice
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a user-visible message produced by the flow. Failures degrade
// to a notice plus the previous known-good state; nothing here is fatal.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

// Notifier receives notices as they are produced. It is called from the
// goroutine that produced the notice and must not block.
type Notifier func(Notice)
