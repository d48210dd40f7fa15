package domain

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notification is a user-facing message.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

func Info(msg string) Notification  { return Notification{Level: LevelInfo, Message: msg} }
func Warn(msg string) Notification  { return Notification{Level: LevelWarn, Message: msg} }
func Error(msg string) Notification { return Notification{Level: LevelError, Message: msg} }
