package interfaces

import "time"

// IClock abstracts wall-clock time so TTL logic can be tested.
type IClock interface {
	Now() time.Time
}
