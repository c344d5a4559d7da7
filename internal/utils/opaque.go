package utils

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

// API ids are opaque: base64 of "<Kind>:<numeric id>". They are stable for
// the life of the entity and decoded only at the request boundary.

var errBadOpaqueID = errors.New("malformed id")

// EncodeID builds the opaque form of a (kind, numeric id) pair.
func EncodeID(kind string, id uint64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(kind + ":" + strconv.FormatUint(id, 10)))
}

// DecodeID parses an opaque id and verifies the kind tag.
func DecodeID(kind, opaque string) (uint64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(opaque)
	if err != nil {
		return 0, errBadOpaqueID
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 || parts[0] != kind {
		return 0, errBadOpaqueID
	}
	n, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || n == 0 {
		return 0, errBadOpaqueID
	}
	return n, nil
}
