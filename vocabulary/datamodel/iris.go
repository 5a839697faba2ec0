package datamodel

// Namespace IRIs.
const (
	RDF       = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS      = "http://www.w3.org/2000/01/rdf-schema#"
	OWL       = "http://www.w3.org/2002/07/owl#"
	SH        = "http://www.w3.org/ns/shacl#"
	XSD       = "http://www.w3.org/2001/XMLSchema#"
	DCTerms   = "http://purl.org/dc/terms/"
	DCAP      = "http://purl.org/ws-mmi-dc/terms/"
	SKOS      = "http://www.w3.org/2004/02/skos/core#"
	SuomiMeta = "https://iri.suomi.fi/model/suomi-meta/"
)

// RDF and RDFS terms.
const (
	Type         = RDF + "type"
	Label        = RDFS + "label"
	Comment      = RDFS + "comment"
	IsDefinedBy  = RDFS + "isDefinedBy"
	SubClassOf   = RDFS + "subClassOf"
	SubProperty  = RDFS + "subPropertyOf"
	Domain       = RDFS + "domain"
	Range        = RDFS + "range"
	RDFSLiteral  = RDFS + "Literal"
	LangString   = RDF + "langString"
	RDFSResource = RDFS + "Resource"
)

// OWL terms.
const (
	Ontology           = OWL + "Ontology"
	Class              = OWL + "Class"
	DatatypeProperty   = OWL + "DatatypeProperty"
	ObjectProperty     = OWL + "ObjectProperty"
	Restriction        = OWL + "Restriction"
	Thing              = OWL + "Thing"
	TopDataProperty    = OWL + "topDataProperty"
	TopObjectProperty  = OWL + "topObjectProperty"
	EquivalentClass    = OWL + "equivalentClass"
	DisjointWith       = OWL + "disjointWith"
	EquivalentProperty = OWL + "equivalentProperty"
	OnProperty         = OWL + "onProperty"
	SomeValuesFrom     = OWL + "someValuesFrom"
	AllValuesFrom      = OWL + "allValuesFrom"
	VersionInfo        = OWL + "versionInfo"
	PriorVersion       = OWL + "priorVersion"
	VersionIRI         = OWL + "versionIRI"
)

// SHACL terms.
const (
	NodeShape     = SH + "NodeShape"
	PropertyShape = SH + "PropertyShape"
	TargetClass   = SH + "targetClass"
	TargetNode    = SH + "targetNode"
	Node          = SH + "node"
	Property      = SH + "property"
	Path          = SH + "path"
	Deactivated   = SH + "deactivated"
	MinCount      = SH + "minCount"
	MaxCount      = SH + "maxCount"
	MinLength     = SH + "minLength"
	MaxLength     = SH + "maxLength"
	MinInclusive  = SH + "minInclusive"
	MaxInclusive  = SH + "maxInclusive"
	MinExclusive  = SH + "minExclusive"
	MaxExclusive  = SH + "maxExclusive"
	Pattern       = SH + "pattern"
	In            = SH + "in"
	DefaultValue  = SH + "defaultValue"
	HasValue      = SH + "hasValue"
	Datatype      = SH + "datatype"
	ShClass       = SH + "class"
)

// XSD datatypes.
const (
	XSDString   = XSD + "string"
	XSDInteger  = XSD + "integer"
	XSDDecimal  = XSD + "decimal"
	XSDBoolean  = XSD + "boolean"
	XSDDateTime = XSD + "dateTime"
	XSDNCName   = XSD + "NCName"
	XSDAnyURI   = XSD + "anyURI"
)

// Dublin Core, DCAP and SKOS terms.
const (
	Identifier    = DCTerms + "identifier"
	Subject       = DCTerms + "subject"
	Created       = DCTerms + "created"
	Modified      = DCTerms + "modified"
	Language      = DCTerms + "language"
	Contributor   = DCTerms + "contributor"
	Description   = DCTerms + "description"
	HasPart       = DCTerms + "hasPart"
	Requires      = DCTerms + "requires"
	References    = DCTerms + "references"
	Prefix        = DCAP + "preferredXMLNamespacePrefix"
	Namespace     = DCAP + "preferredXMLNamespace"
	EditorialNote = SKOS + "editorialNote"
	Note          = SKOS + "note"
)

// suomi-meta terms.
const (
	Library            = SuomiMeta + "Library"
	ApplicationProfile = SuomiMeta + "ApplicationProfile"
	PublicationStatus  = SuomiMeta + "publicationStatus"
	Creator            = SuomiMeta + "creator"
	Modifier           = SuomiMeta + "modifier"
	CodeList           = SuomiMeta + "codeList"
	PositionX          = SuomiMeta + "posX"
	PositionY          = SuomiMeta + "posY"
	ReferenceTarget    = SuomiMeta + "referenceTarget"
	DirectProperty     = SuomiMeta + "directProperty"
)

// StructuralPredicates lists the predicates whose reflexive-transitive closure
// must never return to the originating resource.
var StructuralPredicates = []string{
	SubClassOf,
	EquivalentClass,
	DisjointWith,
	TargetClass,
	Node,
	SubProperty,
	EquivalentProperty,
}

// ContainmentPredicates never count as references when deciding whether a
// resource can be deleted.
var ContainmentPredicates = []string{
	HasPart,
}

// IsDatatype reports whether iri names an XSD datatype or rdfs:Literal.
func IsDatatype(iri string) bool {
	return iri == RDFSLiteral || iri == LangString || len(iri) > len(XSD) && iri[:len(XSD)] == XSD
}
