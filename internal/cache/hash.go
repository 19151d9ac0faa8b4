package cache

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

var buildVersion string

// SetBuildVersion tags fingerprints with the binary version so a new
// build invalidates previous exports.
func SetBuildVersion(version string) {
	buildVersion = strings.TrimSpace(version)
}

// Fingerprint hashes content for change detection.
func Fingerprint(content []byte) string {
	sum := blake2b.Sum256(content)
	hash := hex.EncodeToString(sum[:])
	if buildVersion == "" {
		return hash
	}
	return "v=" + buildVersion + ";" + hash
}
