package search

import "errors"

// ErrIndexNotLoaded is reported when no vector index is available.
var ErrIndexNotLoaded = errors.New("vector index not loaded: run 'oceanai index build'")
