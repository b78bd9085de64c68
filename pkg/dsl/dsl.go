// Package dsl serializes the elements of a configuration to XML documents and back.
//
// Every model, node and relation is stored as its own document. Relations carry the id of
// their source node; nodes and relations carry the id of their model.
package dsl

import (
	"bytes"
	"encoding/xml"

	"github.com/oneconcern/confstore/pkg/errors"
	"github.com/oneconcern/confstore/pkg/model"
)

var (
	// ErrMarshal indicates an element that cannot be serialized
	ErrMarshal = errors.New("dsl serialization error")

	// ErrUnmarshal indicates an invalid document
	ErrUnmarshal = errors.New("dsl parsing error")
)

// MetadataPattern matches the metadata block of a document, which holds non-semantic layout information
const MetadataPattern = `(?s)<metadata>.*?</metadata>|<metadata/>`

type modelDoc struct {
	XMLName    xml.Name      `xml:"model"`
	ID         string        `xml:"id"`
	Text       string        `xml:"text"`
	Type       string        `xml:"mcm_type"`
	Properties []propertyDoc `xml:"properties>property"`
}

type nodeDoc struct {
	XMLName     xml.Name      `xml:"node"`
	ID          string        `xml:"id"`
	ModelID     string        `xml:"model_id"`
	Text        string        `xml:"text"`
	ElementType string        `xml:"element_type"`
	Type        string        `xml:"mcm_type"`
	Tags        []string      `xml:"tags>tag"`
	Properties  []propertyDoc `xml:"properties>property"`
	Metadata    *metadataDoc  `xml:"metadata,omitempty"`
}

type relationDoc struct {
	XMLName     xml.Name      `xml:"relation"`
	ID          string        `xml:"id"`
	ModelID     string        `xml:"model_id"`
	Text        string        `xml:"text"`
	ElementType string        `xml:"element_type"`
	Type        string        `xml:"mcm_type"`
	Source      *endpointDoc  `xml:"source,omitempty"`
	Target      *endpointDoc  `xml:"target,omitempty"`
	Properties  []propertyDoc `xml:"properties>property"`
	Metadata    *metadataDoc  `xml:"metadata,omitempty"`
}

type endpointDoc struct {
	ID   string `xml:"id"`
	Text string `xml:"text"`
}

type propertyDoc struct {
	Key   string `xml:"key"`
	Value string `xml:"value"`
}

type metadataDoc struct {
	PanelAttributes      []propertyDoc   `xml:"panel_attributes>panel_attribute"`
	AdditionalAttributes []int           `xml:"additional_attributes>additional_attribute"`
	Coordinates          *coordinatesDoc `xml:"coordinates,omitempty"`
	Positions            *positionsDoc   `xml:"positions,omitempty"`
}

type coordinatesDoc struct {
	X int `xml:"x"`
	Y int `xml:"y"`
	W int `xml:"w"`
	H int `xml:"h"`
}

type positionsDoc struct {
	Start *relativePositionDoc  `xml:"relative_start_point,omitempty"`
	Mid   []relativePositionDoc `xml:"relative_mid_points>relative_mid_point"`
	End   *relativePositionDoc  `xml:"relative_end_point,omitempty"`
}

type relativePositionDoc struct {
	AbsX    int `xml:"abs_x"`
	AbsY    int `xml:"abs_y"`
	OffsetX int `xml:"offset_x"`
	OffsetY int `xml:"offset_y"`
}

// MarshalModel serializes a model, without its nodes
func MarshalModel(m *model.Model) (string, error) {
	return marshal("model", m.ID, modelDoc{
		ID:         m.ID,
		Text:       m.Text,
		Type:       m.Type,
		Properties: toPropertyDocs(m.Properties),
	})
}

// MarshalNode serializes a node, without its relations
func MarshalNode(n *model.Node) (string, error) {
	return marshal("node", n.ID, nodeDoc{
		ID:          n.ID,
		ModelID:     n.ModelID,
		Text:        n.Text,
		ElementType: n.ElementType,
		Type:        n.Type,
		Tags:        n.Tags,
		Properties:  toPropertyDocs(n.Properties),
		Metadata:    toMetadataDoc(n.Metadata),
	})
}

// MarshalRelation serializes a relation
func MarshalRelation(r *model.Relation) (string, error) {
	return marshal("relation", r.ID, relationDoc{
		ID:          r.ID,
		ModelID:     r.ModelID,
		Text:        r.Text,
		ElementType: r.ElementType,
		Type:        r.Type,
		Source:      toEndpointDoc(r.Source),
		Target:      toEndpointDoc(r.Target),
		Properties:  toPropertyDocs(r.Properties),
		Metadata:    toMetadataDoc(r.Metadata),
	})
}

// UnmarshalModel parses a model document. The model has no nodes.
func UnmarshalModel(text string) (*model.Model, error) {
	var doc modelDoc
	if err := unmarshal("model", text, &doc); err != nil {
		return nil, err
	}
	return &model.Model{
		ID:         doc.ID,
		Text:       doc.Text,
		Type:       doc.Type,
		Properties: fromPropertyDocs(doc.Properties),
	}, nil
}

// UnmarshalNode parses a node document. The node has no relations.
func UnmarshalNode(text string) (*model.Node, error) {
	var doc nodeDoc
	if err := unmarshal("node", text, &doc); err != nil {
		return nil, err
	}
	return &model.Node{
		ID:          doc.ID,
		ModelID:     doc.ModelID,
		Text:        doc.Text,
		ElementType: doc.ElementType,
		Type:        doc.Type,
		Tags:        doc.Tags,
		Properties:  fromPropertyDocs(doc.Properties),
		Metadata:    fromMetadataDoc(doc.Metadata),
	}, nil
}

// UnmarshalRelation parses a relation document
func UnmarshalRelation(text string) (*model.Relation, error) {
	var doc relationDoc
	if err := unmarshal("relation", text, &doc); err != nil {
		return nil, err
	}
	return &model.Relation{
		ID:          doc.ID,
		ModelID:     doc.ModelID,
		Text:        doc.Text,
		ElementType: doc.ElementType,
		Type:        doc.Type,
		Source:      fromEndpointDoc(doc.Source),
		Target:      fromEndpointDoc(doc.Target),
		Properties:  fromPropertyDocs(doc.Properties),
		Metadata:    fromMetadataDoc(doc.Metadata),
	}, nil
}

func marshal(kind, id string, doc interface{}) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", ErrMarshal.WrapMessage(err, "%s %q", kind, id)
	}
	buf.WriteByte('\n')
	return buf.String(), nil
}

func unmarshal(kind, text string, doc interface{}) error {
	if err := xml.Unmarshal([]byte(text), doc); err != nil {
		return ErrUnmarshal.WrapMessage(err, "%s document", kind)
	}
	return nil
}
