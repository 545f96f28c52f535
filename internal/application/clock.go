package application

import (
	"time"

	"github.com/google/uuid"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// SystemClock is the wall clock in UTC.
var SystemClock Clock = realClock{}

type IDGen interface {
	NewID() string
}

type defaultIDGen struct{}

func (defaultIDGen) NewID() string { return uuid.NewString() }

// UUIDGen generates random UUIDv4 ids.
var UUIDGen IDGen = defaultIDGen{}
