package dsl

import "github.com/oneconcern/confstore/pkg/model"

func toPropertyDocs(props []model.Property) []propertyDoc {
	if props == nil {
		return nil
	}
	docs := make([]propertyDoc, 0, len(props))
	for _, p := range props {
		docs = append(docs, propertyDoc{Key: p.Key, Value: p.Value})
	}
	return docs
}

func fromPropertyDocs(docs []propertyDoc) []model.Property {
	if len(docs) == 0 {
		return nil
	}
	props := make([]model.Property, 0, len(docs))
	for _, d := range docs {
		props = append(props, model.Property{Key: d.Key, Value: d.Value})
	}
	return props
}

func toEndpointDoc(e *model.Endpoint) *endpointDoc {
	if e == nil {
		return nil
	}
	return &endpointDoc{ID: e.ID, Text: e.Text}
}

func fromEndpointDoc(d *endpointDoc) *model.Endpoint {
	if d == nil {
		return nil
	}
	return &model.Endpoint{ID: d.ID, Text: d.Text}
}

func toMetadataDoc(m *model.Metadata) *metadataDoc {
	if m == nil {
		return nil
	}
	doc := &metadataDoc{
		PanelAttributes:      toPropertyDocs(m.PanelAttributes),
		AdditionalAttributes: m.AdditionalAttributes,
	}
	if c := m.Coordinates; c != nil {
		doc.Coordinates = &coordinatesDoc{X: c.X, Y: c.Y, W: c.W, H: c.H}
	}
	if p := m.Positions; p != nil {
		doc.Positions = &positionsDoc{
			Start: toRelativePositionDoc(p.Start),
			End:   toRelativePositionDoc(p.End),
		}
		for i := range p.Mid {
			doc.Positions.Mid = append(doc.Positions.Mid, *toRelativePositionDoc(&p.Mid[i]))
		}
	}
	return doc
}

func fromMetadataDoc(doc *metadataDoc) *model.Metadata {
	if doc == nil {
		return nil
	}
	m := &model.Metadata{
		PanelAttributes: fromPropertyDocs(doc.PanelAttributes),
	}
	if len(doc.AdditionalAttributes) > 0 {
		m.AdditionalAttributes = doc.AdditionalAttributes
	}
	if c := doc.Coordinates; c != nil {
		m.Coordinates = &model.Coordinates{X: c.X, Y: c.Y, W: c.W, H: c.H}
	}
	if p := doc.Positions; p != nil {
		m.Positions = &model.Positions{
			Start: fromRelativePositionDoc(p.Start),
			End:   fromRelativePositionDoc(p.End),
		}
		for i := range p.Mid {
			m.Positions.Mid = append(m.Positions.Mid, *fromRelativePositionDoc(&p.Mid[i]))
		}
	}
	return m
}

func toRelativePositionDoc(p *model.RelativePosition) *relativePositionDoc {
	if p == nil {
		return nil
	}
	return &relativePositionDoc{AbsX: p.AbsX, AbsY: p.AbsY, OffsetX: p.OffsetX, OffsetY: p.OffsetY}
}

func fromRelativePositionDoc(d *relativePositionDoc) *model.RelativePosition {
	if d == nil {
		return nil
	}
	return &model.RelativePosition{AbsX: d.AbsX, AbsY: d.AbsY, OffsetX: d.OffsetX, OffsetY: d.OffsetY}
}
