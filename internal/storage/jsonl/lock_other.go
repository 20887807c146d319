//go:build !unix

package jsonl

import "os"

// Without flock only the in-process writer mutex applies.
func flockExclusive(*os.File) error { return nil }

func flockUnlock(*os.File) error { return nil }
