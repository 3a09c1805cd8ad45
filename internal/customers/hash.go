package customers

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
)

// ProfileHash returns the content hash of a customer payload. The gateway is
// only called when the hash differs from the last synced one.
func ProfileHash(payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:]), nil
}
