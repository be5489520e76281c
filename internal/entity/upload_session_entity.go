package entity

import (
	"time"

	"github.com/google/uuid"
)

// UploadSession is the extraction result of one upload. It lives in memory
// only and is never modified after creation.
type UploadSession struct {
	Id               uuid.UUID
	OwnerId          uuid.UUID
	Filename         string
	MimeType         string
	Text             string
	Confidence       string
	ExtractionMethod string
	WordCount        int
	GatePassed       bool
	CreatedAt        time.Time
}
