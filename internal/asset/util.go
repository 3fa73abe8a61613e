package asset

import (
	"crypto/md5"
	"encoding/hex"
	"os"
)

// readFile is a thin indirection over os.ReadFile, kept as a separate
// function so tests can swap it for an in-memory filesystem.
var readFile = os.ReadFile

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
