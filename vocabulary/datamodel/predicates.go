package datamodel

import "github.com/c360studio/semstreams/vocabulary"

// Resource projection predicates used when resources are published to the
// knowledge graph as entities.
const (
	// ResourceURI is the IRI of the projected resource.
	ResourceURI = "datamodel.resource.uri"

	// ResourceIdentifier is the model-local identifier.
	ResourceIdentifier = "datamodel.resource.identifier"

	// ResourceKind is the resource kind.
	// Values: "CLASS", "NODE_SHAPE", "ATTRIBUTE", "ASSOCIATION", "PROPERTY_SHAPE"
	ResourceKind = "datamodel.resource.kind"

	// ResourceStatus is the publication status.
	ResourceStatus = "datamodel.resource.status"

	// ResourceLabel holds one localized label, formatted "lang:text".
	ResourceLabel = "datamodel.resource.label"

	// ResourceTargetClass is the sh:targetClass of a node shape.
	ResourceTargetClass = "datamodel.resource.target_class"
)

// Model membership predicates.
const (
	// ResourceModel is the model URI the resource is defined by.
	ResourceModel = "datamodel.model.defined_by"

	// ResourceNamespace is the namespace the resource is minted in.
	ResourceNamespace = "datamodel.model.namespace"

	// ResourceVersion is the released version the projection belongs to.
	ResourceVersion = "datamodel.model.version"

	// ResourceVersionIRI is the versioned IRI of the resource.
	ResourceVersionIRI = "datamodel.model.version_iri"
)

// Lifecycle predicates.
const (
	ResourceCreated  = "datamodel.lifecycle.created"
	ResourceModified = "datamodel.lifecycle.modified"
)

func init() {
	vocabulary.Register(ResourceURI,
		vocabulary.WithDescription("IRI of the projected resource"),
		vocabulary.WithDataType("string"))

	vocabulary.Register(ResourceIdentifier,
		vocabulary.WithDescription("Model-local resource identifier"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Identifier))

	vocabulary.Register(ResourceKind,
		vocabulary.WithDescription("Resource kind: class, node shape, attribute, association or property shape"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Type))

	vocabulary.Register(ResourceStatus,
		vocabulary.WithDescription("Publication status of the resource"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(PublicationStatus))

	vocabulary.Register(ResourceLabel,
		vocabulary.WithDescription("Localized label formatted lang:text"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Label))

	vocabulary.Register(ResourceTargetClass,
		vocabulary.WithDescription("Target class of a node shape"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(TargetClass))

	vocabulary.Register(ResourceModel,
		vocabulary.WithDescription("Model the resource is defined by"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(IsDefinedBy))

	vocabulary.Register(ResourceNamespace,
		vocabulary.WithDescription("Namespace the resource is minted in"),
		vocabulary.WithDataType("string"))

	vocabulary.Register(ResourceVersion,
		vocabulary.WithDescription("Released model version"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(VersionInfo))

	vocabulary.Register(ResourceVersionIRI,
		vocabulary.WithDescription("Versioned IRI of the resource"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(VersionIRI))

	vocabulary.Register(ResourceCreated,
		vocabulary.WithDescription("Creation timestamp"),
		vocabulary.WithDataType("datetime"),
		vocabulary.WithIRI(Created))

	vocabulary.Register(ResourceModified,
		vocabulary.WithDescription("Last modification timestamp"),
		vocabulary.WithDataType("datetime"),
		vocabulary.WithIRI(Modified))
}
