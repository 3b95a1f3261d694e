package services

import "github.com/poofware/society-service/internal/models"

// Enclosure is one line of the "documents enclosed" list on the printed form.
type Enclosure struct {
	Slot     models.DocumentSlot `json:"slot"`
	Label    string              `json:"label"`
	Present  bool                `json:"present"`
	Optional bool                `json:"optional"`
}

type EnclosureResolver struct {
	registry *NOCTypeRegistry
}

func NewEnclosureResolver(registry *NOCTypeRegistry) *EnclosureResolver {
	return &EnclosureResolver{registry: registry}
}

// Resolve lists required documents then optional ones, in registry order.
func (r *EnclosureResolver) Resolve(sub *models.Submission) []Enclosure {
	var required, optional []models.DocumentSlot
	if sub.Kind == models.KindNOC && sub.NOC != nil {
		cfg := r.registry.ConfigFor(sub.NOC.NOCType)
		required, optional = cfg.RequiredDocuments, cfg.OptionalDocuments
	} else {
		optional = kindDocuments[sub.Kind]
	}

	out := make([]Enclosure, 0, len(required)+len(optional))
	for _, slot := range required {
		out = append(out, Enclosure{Slot: slot, Label: DocumentLabel(slot), Present: sub.Documents.Has(slot)})
	}
	for _, slot := range optional {
		out = append(out, Enclosure{Slot: slot, Label: DocumentLabel(slot), Present: sub.Documents.Has(slot), Optional: true})
	}
	return out
}

// MissingRequired lists the labels of required documents that are absent.
func (r *EnclosureResolver) MissingRequired(sub *models.Submission) []string {
	var missing []string
	for _, e := range r.Resolve(sub) {
		if !e.Optional && !e.Present {
			missing = append(missing, e.Label)
		}
	}
	return missing
}
