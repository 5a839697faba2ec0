// Package datamodel provides the IRIs used to describe data models and their
// resources as RDF.
//
// Models are OWL ontologies. A library model holds OWL classes, datatype
// properties (attributes) and object properties (associations). A profile
// model holds SHACL node shapes and property shapes. Administrative metadata
// (status, creator, code lists) uses the suomi-meta namespace.
//
// # Structural predicates
//
// The following predicates each form an independent acyclic relation:
//
//	rdfs:subClassOf, owl:equivalentClass, owl:disjointWith,
//	sh:targetClass, sh:node,
//	rdfs:subPropertyOf, owl:equivalentProperty
package datamodel
