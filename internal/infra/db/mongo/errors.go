package mongo

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"rentgate/internal/app/uow"
)

const writeConflictCode = 112

// classify marks errors a retried unit of work can get past.
func classify(err error) error {
	if err == nil || errors.Is(err, uow.ErrConflict) {
		return err
	}
	if isConflict(err) {
		return fmt.Errorf("%w: %w", uow.ErrConflict, err)
	}
	return err
}

func isConflict(err error) bool {
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) {
		if labeled.HasErrorLabel("TransientTransactionError") || labeled.HasErrorLabel("UnknownTransactionCommitResult") {
			return true
		}
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == writeConflictCode {
		return true
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, we := range writeErr.WriteErrors {
			if we.Code == writeConflictCode {
				return true
			}
		}
	}
	return false
}

// duplicateOn reports a duplicate key error raised by the named index.
func duplicateOn(err error, index string) bool {
	if !mongo.IsDuplicateKeyError(err) {
		return false
	}
	return strings.Contains(err.Error(), index)
}
