package http

import (
	"encoding/json"
	"log"
	"net/http"

	"accreditation-questionnaire-service/internal/domain"
	"accreditation-questionnaire-service/internal/schema"
)

type sectionDescriptor struct {
	ID     domain.SectionID  `json:"id"`
	Key    string            `json:"key"`
	Title  string            `json:"title"`
	Fields []fieldDescriptor `json:"fields"`
}

type fieldDescriptor struct {
	schema.Field
	Pattern string `json:"pattern,omitempty"`
}

// SectionsHandler serves the section table so clients can render forms.
type SectionsHandler struct {
	body []byte
}

func NewSectionsHandler(schemas *schema.Set) (*SectionsHandler, error) {
	sections := schemas.Sections()
	out := make([]sectionDescriptor, 0, len(sections))
	for _, sec := range sections {
		d := sectionDescriptor{ID: sec.ID, Key: sec.Key, Title: sec.Title}
		for _, f := range sec.Fields {
			d.Fields = append(d.Fields, fieldDescriptor{Field: f, Pattern: f.PatternText()})
		}
		out = append(out, d)
	}
	body, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return &SectionsHandler{body: body}, nil
}

func (h *SectionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(h.body); err != nil {
		log.Printf("write sections: %v", err)
	}
}
