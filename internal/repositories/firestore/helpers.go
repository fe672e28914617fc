package firestore

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/bookcourier/api/internal/platform/firestore"
)

// notFoundError produces a repository error categorised as not-found for
// lookups that return zero documents rather than a missing-document read.
func notFoundError(op, id string) error {
	return pfirestore.WrapError(op, status.Errorf(codes.NotFound, "%s not found", id))
}
