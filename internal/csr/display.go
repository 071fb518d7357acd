package csr

// Field is one labelled row of a subject rendered for operators.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

var displayPriority = []string{
	FieldCommonName,
	FieldEmailAddress,
	FieldOrganization,
	FieldOrganizationalUnit,
	FieldLocality,
	FieldState,
	FieldCountry,
}

// FormatSubjectForDisplay lists the priority attributes first, then everything else in the
// order it appeared. Repeated attributes keep one row each.
func FormatSubjectForDisplay(subject Subject) []Field {
	fields := make([]Field, 0, len(subject))
	used := make([]bool, len(subject))

	for _, kind := range displayPriority {
		for i, attr := range subject {
			if !used[i] && attr.Kind == kind {
				fields = append(fields, Field{Label: labelFor(attr.Kind), Value: attr.Value})
				used[i] = true
			}
		}
	}

	for i, attr := range subject {
		if !used[i] {
			fields = append(fields, Field{Label: labelFor(attr.Kind), Value: attr.Value})
		}
	}
	return fields
}

func labelFor(kind string) string {
	if label, ok := fieldLabels[kind]; ok {
		return label
	}
	return kind
}
