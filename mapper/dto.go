package mapper

// A nil or empty field in an update DTO clears the corresponding triples.
// Create and update use the same DTOs.

// BaseDTO holds the fields shared by every resource kind.
type BaseDTO struct {
	Identifier    string            `json:"identifier" validate:"required,ncname,max=64"`
	Label         map[string]string `json:"label" validate:"omitempty,dive,keys,min=2,max=10,endkeys,max=1024"`
	Note          map[string]string `json:"note,omitempty" validate:"omitempty,dive,keys,min=2,max=10,endkeys,max=5000"`
	EditorialNote string            `json:"editorialNote,omitempty" validate:"max=5000"`
	Status        Status            `json:"status" validate:"required,status"`
	Subject       string            `json:"subject,omitempty" validate:"omitempty,uri"`
}

// ClassDTO describes an owl:Class in a library.
type ClassDTO struct {
	BaseDTO
	SubClassOf      []string `json:"subClassOf" validate:"omitempty,dive,uri"`
	EquivalentClass []string `json:"equivalentClass" validate:"omitempty,dive,uri"`
	DisjointWith    []string `json:"disjointWith" validate:"omitempty,dive,uri"`
}

// NodeShapeDTO describes an sh:NodeShape in a profile. Properties seeds the
// direct sh:property links on create and is ignored on update.
type NodeShapeDTO struct {
	BaseDTO
	TargetClass string   `json:"targetClass,omitempty" validate:"omitempty,uri"`
	TargetNode  string   `json:"targetNode,omitempty" validate:"omitempty,uri"`
	Properties  []string `json:"properties,omitempty" validate:"omitempty,dive,uri"`
}

// ResourceDTO describes an attribute or association in a library.
type ResourceDTO struct {
	BaseDTO
	Domain             string   `json:"domain,omitempty" validate:"omitempty,uri"`
	Range              string   `json:"range,omitempty" validate:"omitempty,uri"`
	SubResourceOf      []string `json:"subResourceOf" validate:"omitempty,dive,uri"`
	EquivalentResource []string `json:"equivalentResource" validate:"omitempty,dive,uri"`
}

// PropertyShapeDTO describes an sh:PropertyShape in a profile. Type is
// KindAttribute or KindAssociation.
type PropertyShapeDTO struct {
	BaseDTO
	Type          Kind     `json:"type" validate:"required,oneof=ATTRIBUTE ASSOCIATION"`
	Path          string   `json:"path,omitempty" validate:"omitempty,uri"`
	ClassType     string   `json:"classType,omitempty" validate:"omitempty,uri"`
	DataType      string   `json:"dataType,omitempty" validate:"omitempty,uri"`
	MinCount      *int     `json:"minCount,omitempty" validate:"omitempty,min=0"`
	MaxCount      *int     `json:"maxCount,omitempty" validate:"omitempty,min=0"`
	MinLength     *int     `json:"minLength,omitempty" validate:"omitempty,min=0"`
	MaxLength     *int     `json:"maxLength,omitempty" validate:"omitempty,min=0"`
	MinInclusive  *int     `json:"minInclusive,omitempty"`
	MaxInclusive  *int     `json:"maxInclusive,omitempty"`
	MinExclusive  *int     `json:"minExclusive,omitempty"`
	MaxExclusive  *int     `json:"maxExclusive,omitempty"`
	Pattern       string   `json:"pattern,omitempty" validate:"max=1024"`
	AllowedValues []string `json:"allowedValues,omitempty"`
	DefaultValue  string   `json:"defaultValue,omitempty"`
	HasValue      string   `json:"hasValue,omitempty"`
	CodeLists     []string `json:"codeLists,omitempty" validate:"omitempty,dive,uri"`
}

// ModelDTO describes a data model.
type ModelDTO struct {
	Prefix        string            `json:"prefix" validate:"required"`
	Type          ModelType         `json:"type" validate:"required,oneof=LIBRARY PROFILE"`
	Label         map[string]string `json:"label" validate:"required,min=1,dive,keys,min=2,max=10,endkeys,required,max=1024"`
	Description   map[string]string `json:"description,omitempty" validate:"omitempty,dive,keys,min=2,max=10,endkeys,max=5000"`
	Languages     []string          `json:"languages" validate:"required,min=1,dive,min=2,max=10"`
	Organizations []string          `json:"organizations" validate:"required,min=1,dive,uuid"`
	Status        Status            `json:"status" validate:"required,status"`
	Requires      []string          `json:"requires,omitempty" validate:"omitempty,dive,uri"`
	Terminologies []string          `json:"terminologies,omitempty" validate:"omitempty,dive,uri"`
	CodeLists     []string          `json:"codeLists,omitempty" validate:"omitempty,dive,uri"`
}

// Position places one resource on the model diagram.
type Position struct {
	Identifier string  `json:"identifier" validate:"required,ncname"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}
