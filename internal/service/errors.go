package service

import (
	"errors"

	"github.com/emrgen/recall/internal/archive"
	"github.com/emrgen/recall/internal/store"
	"google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
)

var (
	// ErrSelfAssociation is returned when both endpoints of an association are the same node.
	ErrSelfAssociation = status.Error(codes.InvalidArgument, "cannot associate a node with itself")
	// ErrNodeNotFound is returned when no node matches the (identifier, owner) pair.
	ErrNodeNotFound = status.Error(codes.NotFound, "node not found")
	// ErrAssociationNotFound is returned when no association exists for the node pair.
	ErrAssociationNotFound = status.Error(codes.NotFound, "association not found")
	// ErrNotAPackage is returned when the node is not a package artifact.
	ErrNotAPackage = status.Error(codes.InvalidArgument, "node is not a package")
	// ErrPackageExpanded is returned when importing a package that was already expanded.
	ErrPackageExpanded = status.Error(codes.FailedPrecondition, "package is already expanded")
	// ErrPackageImporting is returned when the package import is still in flight.
	ErrPackageImporting = status.Error(codes.FailedPrecondition, "package import is in progress")
	// ErrArchiveTooLarge is returned when the archive exceeds the size ceiling.
	ErrArchiveTooLarge = status.Error(codes.ResourceExhausted, "archive exceeds the maximum size")
	// ErrMalformedArchive is returned when a manifest entry does not decode to its expected form.
	ErrMalformedArchive = status.Error(codes.DataLoss, "archive manifest is malformed")
)

// translate maps store and archive sentinels onto the service error
// taxonomy. Anything unrecognized is an internal failure.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, store.ErrNodeNotFound):
		return ErrNodeNotFound
	case errors.Is(err, store.ErrAssociationNotFound):
		return ErrAssociationNotFound
	case errors.Is(err, archive.ErrTooLarge):
		return ErrArchiveTooLarge
	case errors.Is(err, archive.ErrMalformed), errors.Is(err, archive.ErrEntryNotFound):
		return ErrMalformedArchive
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
