package services

import (
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/server/models"
)

// DecodePayload decodes a base64 payload after checking it against max.
// The length check runs first so oversized input is never decoded.
func DecodePayload(encoded string, max int64) ([]byte, error) {
	if int64(len(encoded)) > max {
		return nil, fmt.Errorf("%w: encoded payload is %d bytes, limit is %d", common.ErrorPayloadTooLarge, len(encoded), max)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not valid base64", common.ErrorInvalidInput)
	}
	return data, nil
}

// checkEncodedSize rejects raw payloads whose base64 form would exceed max.
func checkEncodedSize(data []byte, max int64) error {
	if n := int64(base64.StdEncoding.EncodedLen(len(data))); n > max {
		return fmt.Errorf("%w: encoded payload is %d bytes, limit is %d", common.ErrorPayloadTooLarge, n, max)
	}
	return nil
}

// requireRole is the manager-side role check. A nil requester means the
// caller was already authorized at the transport boundary.
func requireRole(requester *models.User, roles ...string) error {
	if requester == nil {
		return nil
	}
	for _, r := range roles {
		if requester.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q may not perform this action", common.ErrorForbidden, requester.Role)
}
