package datamodel

import (
	"testing"

	"github.com/c360studio/semstreams/vocabulary"
)

func TestPredicatesRegistered(t *testing.T) {
	predicates := []string{
		ResourceURI,
		ResourceIdentifier,
		ResourceKind,
		ResourceStatus,
		ResourceLabel,
		ResourceTargetClass,
		ResourceModel,
		ResourceNamespace,
		ResourceVersion,
		ResourceVersionIRI,
		ResourceCreated,
		ResourceModified,
	}

	for _, pred := range predicates {
		t.Run(pred, func(t *testing.T) {
			meta := vocabulary.GetPredicateMetadata(pred)
			if meta == nil || meta.Description == "" {
				t.Errorf("predicate %s not registered or missing description", pred)
			}
		})
	}
}
