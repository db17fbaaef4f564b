package alerting

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Signature hashes a detected condition into its canonical dedup key.
// encoding/json serializes map keys in sorted order, so two structurally
// equal conditions always produce the same hash regardless of how the
// detector assembled the map.
func Signature(fields map[string]any) (string, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", eris.Wrap(err, "alerting: marshal signature fields")
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
