// Package record defines the admission-result records that flow through the
// fetch, extract, normalize and persist stages.
//
// Optional values are pointers so that the persisted JSON carries null for
// fields the source page did not report. The JSON field names are the stable
// contract between stages and external consumers.
package record

// RawRecord is one admission result as extracted from a listing page,
// before any normalization.
type RawRecord struct {
	University      *string `json:"university" yaml:"university"`
	Program         *string `json:"program" yaml:"program"`
	Degree          *string `json:"degree" yaml:"degree"`
	Date            *string `json:"date" yaml:"date"`
	Status          *string `json:"status" yaml:"status"`
	GPA             *string `json:"gpa" yaml:"gpa"`
	GREVerbal       *string `json:"gre_verbal" yaml:"gre_verbal"`
	GREQuantitative *string `json:"gre_quantitative" yaml:"gre_quantitative"`
	GREAW           *string `json:"gre_aw" yaml:"gre_aw"`
	GRESubject      *string `json:"gre_subject" yaml:"gre_subject"`
	Comments        *string `json:"comments" yaml:"comments"`
	URL             *string `json:"url" yaml:"url"`
	EntryLink       *string `json:"entry_link" yaml:"entry_link"`
	SemesterYear    *string `json:"semester_year" yaml:"semester_year"`
	International   *bool   `json:"international" yaml:"international"`

	// Decision dates are not present on listing pages but survive a round
	// trip when a raw file carries them.
	AcceptanceDate *string `json:"acceptance_date,omitempty" yaml:"acceptance_date,omitempty"`
	RejectionDate  *string `json:"rejection_date,omitempty" yaml:"rejection_date,omitempty"`
}

// NormalizedRecord is a RawRecord after field-level cleaning.
type NormalizedRecord struct {
	University      *string `json:"university" yaml:"university"`
	Program         *string `json:"program" yaml:"program"`
	Degree          *string `json:"degree" yaml:"degree" validate:"omitempty,oneof=PhD MS MBA MD Other"`
	DateAdded       *string `json:"date_added" yaml:"date_added" validate:"omitempty,datetime=2006-01-02"`
	Status          *string `json:"status" yaml:"status"`
	GPA             *string `json:"gpa" yaml:"gpa" validate:"omitempty,gpa"`
	GREVerbal       *string `json:"gre_verbal" yaml:"gre_verbal" validate:"omitempty,gre"`
	GREQuantitative *string `json:"gre_quantitative" yaml:"gre_quantitative" validate:"omitempty,gre"`
	GREAW           *string `json:"gre_aw" yaml:"gre_aw" validate:"omitempty,gre"`
	GRESubject      *string `json:"gre_subject" yaml:"gre_subject" validate:"omitempty,gre"`
	Comments        *string `json:"comments" yaml:"comments"`
	URL             *string `json:"url" yaml:"url"`
	EntryLink       *string `json:"entry_link" yaml:"entry_link"`
	SemesterYear    *string `json:"semester_year" yaml:"semester_year"`
	International   *bool   `json:"international" yaml:"international"`

	OriginalProgram *string `json:"original_program,omitempty" yaml:"original_program,omitempty"`
	OriginalStatus  *string `json:"original_status,omitempty" yaml:"original_status,omitempty"`
	AcceptanceDate  *string `json:"acceptance_date,omitempty" yaml:"acceptance_date,omitempty"`
	RejectionDate   *string `json:"rejection_date,omitempty" yaml:"rejection_date,omitempty"`

	// Filled by a name standardizer; never overwritten once set.
	LLMGeneratedProgram    *string `json:"llm_generated_program,omitempty" yaml:"llm_generated_program,omitempty"`
	LLMGeneratedUniversity *string `json:"llm_generated_university,omitempty" yaml:"llm_generated_university,omitempty"`
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// Value dereferences p, returning "" for nil.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
