package audio

import (
	"context"
	"errors"

	"github.com/aiacademy/tutor/pkg/provider"
)

// ErrUnavailable reports that the audio track of a video could not be
// obtained. Callers treat it as non-fatal.
var ErrUnavailable = errors.New("audio unavailable")

type Fetcher interface {
	Fetch(ctx context.Context, playbackID string) (*provider.File, error)
}
